// Package v1alpha1 contains API types for anvil.cofront.xyz/v1alpha1.
//
// The types follow Kubernetes API conventions (TypeMeta, ObjectMeta, Spec)
// without depending on k8s.io/apimachinery, so task files read like any
// other declarative manifest.
package v1alpha1

// TypeMeta describes an individual object's type and API version.
type TypeMeta struct {
	// Kind is the resource kind in CamelCase, e.g. GuestTask.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// APIVersion is group/version, e.g. anvil.cofront.xyz/v1alpha1.
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
}

// ObjectMeta is the metadata of a task document.
type ObjectMeta struct {
	// Name identifies the task in reports and logs.
	// +optional
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Labels are key/value pairs attached to the task.
	// +optional
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// Annotations are unstructured key/value pairs set by external tools.
	// +optional
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}
