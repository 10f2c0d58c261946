package v1alpha1

const (
	// GroupName is the API group for anvil resources.
	GroupName = "anvil.cofront.xyz"

	// Version is the API version.
	Version = "v1alpha1"

	// GuestTaskKind is the kind string for GuestTask resources.
	GuestTaskKind = "GuestTask"
)

// NewGuestTask creates a GuestTask with TypeMeta set.
func NewGuestTask(name, image string) *GuestTask {
	return &GuestTask{
		TypeMeta: TypeMeta{
			APIVersion: GroupName + "/" + Version,
			Kind:       GuestTaskKind,
		},
		ObjectMeta: ObjectMeta{Name: name},
		Spec:       GuestTaskSpec{Image: image},
	}
}

// Operation returns the name of the operation set in the spec: "command",
// "copyOut", "package" or "user". It returns "" when none is set and the
// first one found when several are.
func (t *GuestTask) Operation() string {
	for _, op := range t.Spec.operations() {
		if op.set {
			return op.name
		}
	}
	return ""
}

// OperationCount returns how many operations are set in the spec.
func (t *GuestTask) OperationCount() int {
	n := 0
	for _, op := range t.Spec.operations() {
		if op.set {
			n++
		}
	}
	return n
}

type operation struct {
	name string
	set  bool
}

func (s *GuestTaskSpec) operations() []operation {
	return []operation{
		{"command", s.Command != nil},
		{"copyOut", s.CopyOut != nil},
		{"package", s.Package != nil},
		{"user", s.User != nil},
	}
}

// PackageState returns the package state with default fallback.
func (t *GuestTask) PackageState() string {
	if t.Spec.Package == nil || t.Spec.Package.State == "" {
		return "present"
	}
	return t.Spec.Package.State
}

// UserState returns the user state with default fallback.
func (t *GuestTask) UserState() string {
	if t.Spec.User == nil || t.Spec.User.State == "" {
		return "present"
	}
	return t.Spec.User.State
}

// BoolOr dereferences b, returning def when b is nil.
func BoolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
