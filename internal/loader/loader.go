// Package loader loads GuestTask resources from YAML files.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/anvil/api/v1alpha1"
	"github.com/jbweber/anvil/internal/errdefs"
	"github.com/jbweber/anvil/internal/mount"
	"github.com/jbweber/anvil/internal/pkgmgr"
)

// LoadFromFile loads a GuestTask from a YAML file in the
// anvil.cofront.xyz/v1alpha1 format. A relative passwordFile is resolved
// against the directory of path.
func LoadFromFile(path string) (*v1alpha1.GuestTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file %s: %v", errdefs.ErrConfiguration, path, err)
	}

	task, err := LoadFromYAML(data)
	if err != nil {
		return nil, err
	}

	if u := task.Spec.User; u != nil && u.PasswordFile != "" {
		expanded, err := homedir.Expand(u.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("%w: spec.user.passwordFile: %v", errdefs.ErrConfiguration, err)
		}
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(filepath.Dir(path), expanded)
		}
		u.PasswordFile = expanded
	}
	return task, nil
}

// LoadFromYAML loads a GuestTask from YAML bytes. Unknown fields are
// rejected so that misspelled options do not silently fall back to
// defaults.
func LoadFromYAML(data []byte) (*v1alpha1.GuestTask, error) {
	var task v1alpha1.GuestTask
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&task); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty task document", errdefs.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: failed to unmarshal YAML: %v", errdefs.ErrConfiguration, err)
	}

	if task.APIVersion == "" {
		return nil, fmt.Errorf("%w: missing required field: apiVersion", errdefs.ErrConfiguration)
	}
	if task.Kind == "" {
		return nil, fmt.Errorf("%w: missing required field: kind", errdefs.ErrConfiguration)
	}

	expectedAPIVersion := v1alpha1.GroupName + "/" + v1alpha1.Version
	if task.APIVersion != expectedAPIVersion {
		return nil, fmt.Errorf("%w: unsupported apiVersion: %s (expected: %s)", errdefs.ErrConfiguration, task.APIVersion, expectedAPIVersion)
	}
	if task.Kind != v1alpha1.GuestTaskKind {
		return nil, fmt.Errorf("%w: unsupported kind: %s (expected: %s)", errdefs.ErrConfiguration, task.Kind, v1alpha1.GuestTaskKind)
	}

	if err := Validate(&task); err != nil {
		return nil, err
	}

	return &task, nil
}

// Validate applies defaults to a task built in code and checks it the way
// LoadFromYAML does.
func Validate(task *v1alpha1.GuestTask) error {
	applyDefaults(task)

	if err := validateSpec(task); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// Policy returns the mount policy of a loaded task.
func Policy(task *v1alpha1.GuestTask) (mount.Policy, error) {
	entries, err := mount.ParseEntries(task.Spec.Mounts)
	if err != nil {
		return mount.Policy{}, fmt.Errorf("spec.%w", err)
	}
	p := mount.Resolve(task.Spec.Automount, entries)
	if err := p.Validate(); err != nil {
		return mount.Policy{}, err
	}
	return p, nil
}

// applyDefaults normalizes fields that may be omitted.
func applyDefaults(task *v1alpha1.GuestTask) {
	task.Name = strings.TrimSpace(task.Name)
	task.Spec.Image = strings.TrimSpace(task.Spec.Image)

	if p := task.Spec.Package; p != nil && p.State == "" && p.List == "" {
		p.State = string(pkgmgr.StatePresent)
	}
	if u := task.Spec.User; u != nil && u.State == "" {
		u.State = string(pkgmgr.StatePresent)
	}
}

// validateSpec checks the structure of the task. Operation-level checks
// such as user name syntax happen again when the operation runs.
func validateSpec(task *v1alpha1.GuestTask) error {
	spec := &task.Spec

	if spec.Image == "" {
		return fmt.Errorf("%w: spec.image is required", errdefs.ErrConfiguration)
	}

	if _, err := Policy(task); err != nil {
		return err
	}

	switch n := task.OperationCount(); {
	case n == 0:
		return fmt.Errorf("%w: spec must set one of command, copyOut, package or user", errdefs.ErrConfiguration)
	case n > 1:
		return fmt.Errorf("%w: spec sets %d operations, only one of command, copyOut, package or user is allowed", errdefs.ErrConfiguration, n)
	}

	switch {
	case spec.Command != nil:
		shell := strings.TrimSpace(spec.Command.Shell) != ""
		command := strings.TrimSpace(spec.Command.Command) != ""
		if shell == command {
			return fmt.Errorf("%w: spec.command must set exactly one of shell or command", errdefs.ErrConfiguration)
		}

	case spec.CopyOut != nil:
		if spec.CopyOut.Src == "" {
			return fmt.Errorf("%w: spec.copyOut.src is required", errdefs.ErrConfiguration)
		}
		if spec.CopyOut.Dest == "" {
			return fmt.Errorf("%w: spec.copyOut.dest is required", errdefs.ErrConfiguration)
		}

	case spec.Package != nil:
		p := spec.Package
		if len(p.Names) > 0 && p.List != "" {
			return fmt.Errorf("%w: spec.package.names and spec.package.list are mutually exclusive", errdefs.ErrConfiguration)
		}
		if len(p.Names) == 0 && p.List == "" {
			return fmt.Errorf("%w: spec.package must set names or list", errdefs.ErrConfiguration)
		}
		for i, name := range p.Names {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("%w: spec.package.names[%d] is empty", errdefs.ErrConfiguration, i)
			}
		}
		if p.List == "" {
			if _, err := pkgmgr.ParseState(p.State); err != nil {
				return fmt.Errorf("spec.package.state: %w", err)
			}
		}

	case spec.User != nil:
		u := spec.User
		if u.Name == "" {
			return fmt.Errorf("%w: spec.user.name is required", errdefs.ErrConfiguration)
		}
		state, err := pkgmgr.ParseState(u.State)
		if err != nil {
			return fmt.Errorf("spec.user.state: %w", err)
		}
		if u.Password != "" && u.PasswordFile != "" {
			return fmt.Errorf("%w: spec.user.password and spec.user.passwordFile are mutually exclusive", errdefs.ErrConfiguration)
		}
		if state == pkgmgr.StatePresent && u.Password == "" && u.PasswordFile == "" {
			return fmt.Errorf("%w: spec.user.password or spec.user.passwordFile is required when state is present", errdefs.ErrConfiguration)
		}
	}

	return nil
}

// ReadPassword returns the password of a user spec, reading PasswordFile
// when set. Only the first line of the file is used.
func ReadPassword(u *v1alpha1.UserSpec) (string, error) {
	if u.PasswordFile == "" {
		return u.Password, nil
	}
	data, err := os.ReadFile(u.PasswordFile)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read password file: %v", errdefs.ErrConfiguration, err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return "", fmt.Errorf("%w: password file %s is empty", errdefs.ErrConfiguration, u.PasswordFile)
	}
	return line, nil
}
