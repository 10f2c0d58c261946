package guest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/jbweber/anvil/internal/errdefs"
)

// DefaultChecksum is the checksum algorithm used when none is configured.
const DefaultChecksum = "md5"

var hashes = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// FetchRequest describes a copy from the guest to the host.
type FetchRequest struct {
	// Src is the guest path.
	Src string `json:"src" yaml:"src"`
	// Dest is the host path. A trailing separator means "inside this directory".
	Dest string `json:"dest" yaml:"dest"`
	// Recursive copies a directory tree.
	Recursive bool `json:"recursive,omitempty" yaml:"recursive,omitempty"`
}

// Fetcher copies files out of a guest.
type Fetcher struct {
	// Host is the host filesystem. The backend writes downloads to the real
	// filesystem, so production code uses afero.NewOsFs().
	Host afero.Fs
	// Algorithm is the checksum used for change detection; empty means md5.
	Algorithm string
}

// NewFetcher returns a Fetcher on the OS filesystem.
func NewFetcher(algorithm string) *Fetcher {
	return &Fetcher{Host: afero.NewOsFs(), Algorithm: algorithm}
}

func (f *Fetcher) algorithm() string {
	if f.Algorithm == "" {
		return DefaultChecksum
	}
	return f.Algorithm
}

// Fetch copies req.Src out of the guest.
//
// A single file is downloaded only when the host copy is missing or its
// checksum differs, so repeated fetches report Changed=false. A recursive
// fetch always copies and always reports Changed=true.
func (f *Fetcher) Fetch(s Session, req FetchRequest) (*Result, error) {
	if req.Src == "" || req.Dest == "" {
		return nil, fmt.Errorf("%w: src and dest are required", errdefs.ErrConfiguration)
	}
	newHash, ok := hashes[f.algorithm()]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported checksum algorithm %q", errdefs.ErrConfiguration, f.algorithm())
	}
	app, err := s.Appliance()
	if err != nil {
		return nil, err
	}

	dest, err := resolveDest(req.Src, req.Dest)
	if err != nil {
		return nil, err
	}

	if req.Recursive {
		if err := f.Host.MkdirAll(dest, 0o755); err != nil {
			return nil, fmt.Errorf("%w: failed to create %s: %v", errdefs.ErrDownload, dest, err)
		}
		if err := app.CopyRecursive(req.Src, dest); err != nil {
			return nil, fmt.Errorf("%w: %v", errdefs.ErrDownload, err)
		}
		return &Result{
			Changed: true,
			Data:    map[string]any{"src": req.Src, "dest": dest},
		}, nil
	}

	regular, err := app.IsRegularFile(req.Src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrDownload, err)
	}
	if !regular {
		return nil, fmt.Errorf("%w: %s, use recursive for directories", errdefs.ErrIsDirectoryOrSymlink, req.Src)
	}

	guestSum, err := app.Checksum(f.algorithm(), req.Src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrDownload, err)
	}

	hostSum, err := f.hostChecksum(dest, newHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrDownload, err)
	}

	changed := hostSum != guestSum
	if changed {
		if err := f.Host.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("%w: failed to create %s: %v", errdefs.ErrDownload, filepath.Dir(dest), err)
		}
		if err := app.Download(req.Src, dest); err != nil {
			return nil, fmt.Errorf("%w: %v", errdefs.ErrDownload, err)
		}
	}

	return &Result{
		Changed: changed,
		Data: map[string]any{
			"src":      req.Src,
			"dest":     dest,
			"checksum": guestSum,
		},
	}, nil
}

// hostChecksum returns the hex checksum of a host file, or "" if there is
// no regular file at path.
func (f *Fetcher) hostChecksum(path string, newHash func() hash.Hash) (string, error) {
	info, err := f.Host.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", nil
	}

	file, err := f.Host.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	h := newHash()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// resolveDest expands ~ and appends the base name of src when dest ends in
// a separator.
func resolveDest(src, dest string) (string, error) {
	expanded, err := homedir.Expand(dest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errdefs.ErrConfiguration, err)
	}
	if strings.HasSuffix(dest, "/") || strings.HasSuffix(dest, string(filepath.Separator)) {
		return filepath.Join(expanded, path.Base(src)), nil
	}
	return expanded, nil
}
