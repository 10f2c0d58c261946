package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/anvil/api/v1alpha1"
	"github.com/jbweber/anvil/internal/config"
	"github.com/jbweber/anvil/internal/errdefs"
	"github.com/jbweber/anvil/internal/guest"
	"github.com/jbweber/anvil/internal/image"
	"github.com/jbweber/anvil/internal/output"
	"github.com/jbweber/anvil/internal/session"
)

// useConfig installs c as the loaded config for the duration of the test.
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Defaults: config.Defaults{Network: true, Checksum: "md5"},
		Output:   "json",
		Libvirt: config.Libvirt{
			Socket:  filepath.Join(t.TempDir(), "no-libvirt.sock"),
			Timeout: 100 * time.Millisecond,
		},
	}
}

// writeImage creates a small qcow2-looking file.
func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.qcow2")
	require.NoError(t, os.WriteFile(path, []byte{0x51, 0x46, 0x49, 0xfb, 0, 0, 0, 3}, 0o644))
	return path
}

func decodeReport(t *testing.T, out string) map[string]any {
	t.Helper()
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fields), out)
	return fields
}

// notMounted is a guest.Session whose appliance is never available.
type notMounted struct{}

func (notMounted) Appliance() (session.Appliance, error) {
	return nil, fmt.Errorf("%w: test session", errdefs.ErrNotMounted)
}

func TestSessionFlagsApply(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    error
		check      func(t *testing.T, task *v1alpha1.GuestTask)
		wantMounts []map[string]string
	}{
		{
			name: "nothing set leaves defaults to config",
			check: func(t *testing.T, task *v1alpha1.GuestTask) {
				assert.Nil(t, task.Spec.Automount)
				assert.Nil(t, task.Spec.Network)
				assert.Nil(t, task.Spec.SELinuxRelabel)
				assert.False(t, task.Spec.Force)
			},
		},
		{
			name: "explicit values",
			args: []string{"--automount=false", "--network=false", "--selinux-relabel", "--force"},
			check: func(t *testing.T, task *v1alpha1.GuestTask) {
				require.NotNil(t, task.Spec.Automount)
				assert.False(t, *task.Spec.Automount)
				require.NotNil(t, task.Spec.Network)
				assert.False(t, *task.Spec.Network)
				require.NotNil(t, task.Spec.SELinuxRelabel)
				assert.True(t, *task.Spec.SELinuxRelabel)
				assert.True(t, task.Spec.Force)
			},
		},
		{
			name:       "mounts keep order",
			args:       []string{"-m", "/dev/sda2:/", "--mount", "/dev/sda1:/boot"},
			wantMounts: []map[string]string{{"/dev/sda2": "/"}, {"/dev/sda1": "/boot"}},
		},
		{
			name:    "bad mount",
			args:    []string{"--mount", "/dev/sda1"},
			wantErr: errdefs.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f sessionFlags
			cmd := &cobra.Command{Use: "test"}
			addSessionFlags(cmd, &f)
			require.NoError(t, cmd.ParseFlags(tt.args))

			task := v1alpha1.NewGuestTask("", "disk.img")
			err := f.apply(cmd, task)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, task)
			}
			if tt.wantMounts != nil {
				assert.Equal(t, tt.wantMounts, task.Spec.Mounts)
			}
		})
	}
}

func TestTaskOperation(t *testing.T) {
	pwFile := filepath.Join(t.TempDir(), "pw")
	require.NoError(t, os.WriteFile(pwFile, []byte("s3cret\n"), 0o600))

	tests := []struct {
		name    string
		mutate  func(task *v1alpha1.GuestTask)
		wantErr bool
	}{
		{name: "command", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.Command = &v1alpha1.CommandSpec{Shell: "true"}
		}},
		{name: "command without input", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.Command = &v1alpha1.CommandSpec{}
		}, wantErr: true},
		{name: "copy out", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.CopyOut = &v1alpha1.CopyOutSpec{Src: "/etc/hosts", Dest: "hosts"}
		}},
		{name: "package install", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.Package = &v1alpha1.PackageSpec{Names: []string{"vim"}}
		}},
		{name: "package bad state", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.Package = &v1alpha1.PackageSpec{Names: []string{"vim"}, State: "latest"}
		}, wantErr: true},
		{name: "package list", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.Package = &v1alpha1.PackageSpec{List: "*"}
		}},
		{name: "user from password file", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.User = &v1alpha1.UserSpec{Name: "alice", PasswordFile: pwFile}
		}},
		{name: "user absent", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.User = &v1alpha1.UserSpec{Name: "alice", State: "absent"}
		}},
		{name: "user invalid name", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.User = &v1alpha1.UserSpec{Name: "Alice!", Password: "pw"}
		}, wantErr: true},
		{name: "user missing password file", mutate: func(task *v1alpha1.GuestTask) {
			task.Spec.User = &v1alpha1.UserSpec{Name: "alice", PasswordFile: filepath.Join(t.TempDir(), "nope")}
		}, wantErr: true},
		{name: "no operation", mutate: func(task *v1alpha1.GuestTask) {}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := v1alpha1.NewGuestTask("", "disk.img")
			tt.mutate(task)

			op, err := taskOperation(task, "md5")
			if tt.wantErr {
				assert.ErrorIs(t, err, errdefs.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, op)

			_, err = op(notMounted{})
			assert.ErrorIs(t, err, errdefs.ErrNotMounted)
		})
	}
}

func TestResolveImage(t *testing.T) {
	path := writeImage(t)

	t.Run("path without in-use check", func(t *testing.T) {
		useConfig(t, testConfig(t))

		h, err := resolveImage(context.Background(), path, false)
		require.NoError(t, err)
		assert.Equal(t, path, h.Path)
		assert.Equal(t, image.FormatQCOW2, h.Format)
	})

	t.Run("in-use check skipped when libvirt is down", func(t *testing.T) {
		c := testConfig(t)
		c.Libvirt.CheckInUse = true
		useConfig(t, c)

		h, err := resolveImage(context.Background(), path, false)
		require.NoError(t, err)
		assert.Equal(t, path, h.Path)
	})

	t.Run("volume needs libvirt", func(t *testing.T) {
		useConfig(t, testConfig(t))

		_, err := resolveImage(context.Background(), "default:fedora.qcow2", false)
		assert.ErrorIs(t, err, errdefs.ErrImageNotFound)
	})

	t.Run("missing path", func(t *testing.T) {
		useConfig(t, testConfig(t))

		_, err := resolveImage(context.Background(), filepath.Join(t.TempDir(), "nope.img"), true)
		assert.ErrorIs(t, err, errdefs.ErrImageNotFound)
	})
}

func TestPrintReport(t *testing.T) {
	useConfig(t, testConfig(t))

	var buf bytes.Buffer
	err := printReport(&buf, output.NewReport("disk.img", &guest.Result{Changed: true}, nil))
	require.NoError(t, err)
	assert.Equal(t, true, decodeReport(t, buf.String())["changed"])

	buf.Reset()
	err = printReport(&buf, output.NewReport("disk.img", nil, fmt.Errorf("%w: /etc", errdefs.ErrIsDirectoryOrSymlink)))
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, "IsDirectoryOrSymlink", decodeReport(t, buf.String())["error_kind"])
}

func TestRunTask_BackendUnavailable(t *testing.T) {
	useConfig(t, testConfig(t))

	prev := newAppliance
	newAppliance = func() (session.Appliance, error) {
		return nil, fmt.Errorf("%w: test backend", errdefs.ErrBackendUnavailable)
	}
	t.Cleanup(func() { newAppliance = prev })

	task := v1alpha1.NewGuestTask("os-release", writeImage(t))
	task.Spec.Command = &v1alpha1.CommandSpec{Shell: "cat /etc/os-release"}

	var buf bytes.Buffer
	err := runTask(context.Background(), &buf, task)
	require.True(t, errors.Is(err, errReported), "expected errReported, got %v", err)

	fields := decodeReport(t, buf.String())
	assert.Equal(t, "BackendUnavailable", fields["error_kind"])
	assert.Equal(t, true, fields["session_failed"])
	assert.Equal(t, "os-release", fields["task"])
	assert.Equal(t, false, fields["changed"])
}

func TestRunTask_BadPolicyFailsBeforeSession(t *testing.T) {
	useConfig(t, testConfig(t))

	prev := newAppliance
	calls := 0
	newAppliance = func() (session.Appliance, error) {
		calls++
		return nil, errors.New("unexpected")
	}
	t.Cleanup(func() { newAppliance = prev })

	off := false
	task := v1alpha1.NewGuestTask("", writeImage(t))
	task.Spec.Automount = &off
	task.Spec.Command = &v1alpha1.CommandSpec{Shell: "true"}

	var buf bytes.Buffer
	err := runTask(context.Background(), &buf, task)
	assert.ErrorIs(t, err, errReported)
	fields := decodeReport(t, buf.String())
	assert.Equal(t, "ConfigurationError", fields["error_kind"])
	assert.NotContains(t, fields, "session_failed")
	assert.Zero(t, calls)
}

func TestPromptPassword_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var prompt bytes.Buffer
	_, err = promptPassword(f, &prompt, "alice")
	assert.ErrorIs(t, err, errdefs.ErrConfiguration)
	assert.Empty(t, prompt.String())
}

func TestSetupLogging(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	setupLogging(&buf, false)
	slog.Info("hidden")
	slog.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	setupLogging(&buf, true)
	slog.Debug("debugging")
	assert.True(t, strings.Contains(buf.String(), "level=DEBUG"), buf.String())
}
