package libvirt

import "fmt"

// VolumePath returns the host path of a storage volume.
func (c *Client) VolumePath(pool, volume string) (string, error) {
	if c.api == nil {
		return "", fmt.Errorf("client not connected")
	}

	p, err := c.api.StoragePoolLookupByName(pool)
	if err != nil {
		return "", fmt.Errorf("failed to find storage pool %s: %w", pool, err)
	}

	v, err := c.api.StorageVolLookupByName(p, volume)
	if err != nil {
		return "", fmt.Errorf("failed to find volume %s in pool %s: %w", volume, pool, err)
	}

	path, err := c.api.StorageVolGetPath(v)
	if err != nil {
		return "", fmt.Errorf("failed to get path of volume %s: %w", volume, err)
	}
	return path, nil
}
