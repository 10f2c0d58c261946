package v1alpha1

// GuestTask runs one operation against a disk image.
//
// The image is opened, its filesystems are mounted according to Automount
// and Mounts, the single operation set in Spec runs, and the image is
// always torn down afterwards.
//
//	apiVersion: anvil.cofront.xyz/v1alpha1
//	kind: GuestTask
//	metadata:
//	  name: install-vim
//	spec:
//	  image: ~/images/fedora-40.qcow2
//	  package:
//	    names: [vim]
//	    state: present
type GuestTask struct {
	TypeMeta `json:",inline" yaml:",inline"`

	// +optional
	ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Spec GuestTaskSpec `json:"spec" yaml:"spec"`
}

// GuestTaskSpec defines the image, the mount policy and exactly one of
// Command, CopyOut, Package and User.
type GuestTaskSpec struct {
	// Image is a host path or a libvirt pool:volume reference.
	Image string `json:"image" yaml:"image"`

	// Automount detects and mounts the first operating system found.
	// Defaults to true when Mounts is empty and false otherwise.
	// +optional
	Automount *bool `json:"automount,omitempty" yaml:"automount,omitempty"`

	// Mounts is an ordered list of single-pair maps, device to mountpoint:
	//
	//	mounts:
	//	  - /dev/sda1: /
	//	  - /dev/sda2: /boot
	//
	// +optional
	Mounts []map[string]string `json:"mounts,omitempty" yaml:"mounts,omitempty"`

	// Network enables the appliance network. Defaults to the configured
	// defaults.network.
	// +optional
	Network *bool `json:"network,omitempty" yaml:"network,omitempty"`

	// SELinuxRelabel relabels the guest when the session closes. Defaults to
	// the configured defaults.selinux_relabel.
	// +optional
	SELinuxRelabel *bool `json:"selinuxRelabel,omitempty" yaml:"selinuxRelabel,omitempty"`

	// Force skips the running-domain check.
	// +optional
	Force bool `json:"force,omitempty" yaml:"force,omitempty"`

	// +optional
	Command *CommandSpec `json:"command,omitempty" yaml:"command,omitempty"`
	// +optional
	CopyOut *CopyOutSpec `json:"copyOut,omitempty" yaml:"copyOut,omitempty"`
	// +optional
	Package *PackageSpec `json:"package,omitempty" yaml:"package,omitempty"`
	// +optional
	User *UserSpec `json:"user,omitempty" yaml:"user,omitempty"`
}

// CommandSpec runs a shell or argv command. Exactly one field is set.
type CommandSpec struct {
	Shell   string `json:"shell,omitempty" yaml:"shell,omitempty"`
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
}

// CopyOutSpec copies a guest path to the host.
type CopyOutSpec struct {
	Src string `json:"src" yaml:"src"`
	// Dest ending in "/" receives the source's base name.
	Dest string `json:"dest" yaml:"dest"`
	// +optional
	Recursive bool `json:"recursive,omitempty" yaml:"recursive,omitempty"`
}

// PackageSpec installs or removes Names, or lists installed packages
// matching List. Names and List are mutually exclusive.
type PackageSpec struct {
	// +optional
	Names []string `json:"names,omitempty" yaml:"names,omitempty"`
	// State is present or absent. Defaults to present.
	// +optional
	State string `json:"state,omitempty" yaml:"state,omitempty"`
	// List is "*" or a regular expression matched against package names.
	// +optional
	List string `json:"list,omitempty" yaml:"list,omitempty"`
}

// UserSpec converges a guest account.
type UserSpec struct {
	Name string `json:"name" yaml:"name"`
	// State is present or absent. Defaults to present.
	// +optional
	State string `json:"state,omitempty" yaml:"state,omitempty"`
	// Password is required for present unless PasswordFile is set.
	// +optional
	Password string `json:"-" yaml:"password,omitempty"`
	// PasswordFile is a host file whose first line is the password.
	// +optional
	PasswordFile string `json:"passwordFile,omitempty" yaml:"passwordFile,omitempty"`
	// +optional
	AuthorizedKeys []string `json:"authorizedKeys,omitempty" yaml:"authorizedKeys,omitempty"`
}
