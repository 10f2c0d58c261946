package guest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alessio/shellescape"
	"golang.org/x/crypto/ssh"

	"github.com/jbweber/anvil/internal/errdefs"
	"github.com/jbweber/anvil/internal/pkgmgr"
	"github.com/jbweber/anvil/internal/session"
)

var userNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_.-]{0,31}$`)

// UserRequest describes the desired state of one guest account.
type UserRequest struct {
	Name  string       `json:"name" yaml:"name"`
	State pkgmgr.State `json:"state" yaml:"state"`
	// Password is required for present. It is never logged or reported.
	Password string `json:"-" yaml:"password,omitempty"`
	// AuthorizedKeys are appended to the user's ~/.ssh/authorized_keys.
	AuthorizedKeys []string `json:"authorizedKeys,omitempty" yaml:"authorizedKeys,omitempty"`
}

// Validate checks the request before any guest work.
func (r UserRequest) Validate() error {
	if !userNamePattern.MatchString(r.Name) {
		return fmt.Errorf("%w: invalid user name %q", errdefs.ErrConfiguration, r.Name)
	}
	if _, err := pkgmgr.ParseState(string(r.State)); err != nil {
		return err
	}
	if r.State == pkgmgr.StatePresent && r.Password == "" {
		return fmt.Errorf("%w: password is required when state is present", errdefs.ErrConfiguration)
	}
	if r.State == pkgmgr.StateAbsent && len(r.AuthorizedKeys) > 0 {
		return fmt.Errorf("%w: authorized keys cannot be set when state is absent", errdefs.ErrConfiguration)
	}
	for i, key := range r.AuthorizedKeys {
		if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key)); err != nil {
			return fmt.Errorf("%w: authorized key %d: %v", errdefs.ErrConfiguration, i, err)
		}
	}
	return nil
}

// userLookup is the outcome of probing the guest for an account.
type userLookup struct {
	found bool
	uid   string
}

// lookupUser resolves the numeric uid of name. Any failure means the user
// does not exist.
func lookupUser(app session.Appliance, name string) userLookup {
	out, err := app.Command([]string{"id", "-u", name})
	if err != nil {
		return userLookup{}
	}
	return userLookup{found: true, uid: strings.TrimSpace(out)}
}

// ApplyUser converges a guest account to req.State.
//
// Absent on a missing user is a no-op that still reports Changed=true.
// Data "results" holds "<name> is <state>".
func ApplyUser(s Session, req UserRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	app, err := s.Appliance()
	if err != nil {
		return nil, err
	}

	user := lookupUser(app, req.Name)

	switch req.State {
	case pkgmgr.StatePresent:
		if !user.found {
			if _, err := app.Command([]string{"useradd", req.Name}); err != nil {
				return nil, fmt.Errorf("%w: useradd %s: %s", errdefs.ErrOperation, req.Name, executionMessage(err))
			}
		}
		if err := setPassword(app, req.Name, req.Password); err != nil {
			return nil, err
		}
	case pkgmgr.StateAbsent:
		if user.found {
			if _, err := app.Command([]string{"userdel", req.Name}); err != nil {
				return nil, fmt.Errorf("%w: userdel %s: %s", errdefs.ErrOperation, req.Name, executionMessage(err))
			}
		}
	}

	data := map[string]any{
		"results": []string{fmt.Sprintf("%s is %s", req.Name, req.State)},
	}
	if user.found && req.State == pkgmgr.StatePresent {
		data["uid"] = user.uid
	}
	if len(req.AuthorizedKeys) > 0 {
		added, err := addAuthorizedKeys(app, req.Name, req.AuthorizedKeys)
		if err != nil {
			return nil, err
		}
		data["authorized_keys_added"] = added
	}

	return &Result{Changed: true, Data: data}, nil
}

// setPassword pipes "name:password" into chpasswd. The password never
// appears in the returned error, quoted or not.
func setPassword(app session.Appliance, name, password string) error {
	quoted := shellescape.Quote(name + ":" + password)
	line := fmt.Sprintf("printf '%%s\\n' %s | chpasswd", quoted)
	if _, err := app.Sh(line); err != nil {
		msg := strings.NewReplacer(quoted, name+":********", password, "********").Replace(executionMessage(err))
		return fmt.Errorf("%w: chpasswd %s: %s", errdefs.ErrOperation, name, msg)
	}
	return nil
}

// addAuthorizedKeys appends keys missing from the user's authorized_keys
// and returns how many were added.
func addAuthorizedKeys(app session.Appliance, name string, keys []string) (int, error) {
	sshDir := homeDir(app, name) + "/.ssh"
	file := sshDir + "/authorized_keys"

	existing := map[string]bool{}
	if ok, err := app.Exists(file); err == nil && ok {
		lines, err := app.ReadLines(file)
		if err != nil {
			return 0, fmt.Errorf("%w: failed to read %s: %v", errdefs.ErrOperation, file, err)
		}
		for _, l := range lines {
			existing[keyIdentity(l)] = true
		}
	}

	var script []string
	script = append(script, fmt.Sprintf("mkdir -p %s", shellescape.Quote(sshDir)))
	added := 0
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if existing[keyIdentity(key)] {
			continue
		}
		existing[keyIdentity(key)] = true
		script = append(script, fmt.Sprintf("printf '%%s\\n' %s >> %s", shellescape.Quote(key), shellescape.Quote(file)))
		added++
	}
	script = append(script,
		fmt.Sprintf("chmod 700 %s", shellescape.Quote(sshDir)),
		fmt.Sprintf("touch %s", shellescape.Quote(file)),
		fmt.Sprintf("chmod 600 %s", shellescape.Quote(file)),
		fmt.Sprintf("chown -R %s: %s", shellescape.Quote(name), shellescape.Quote(sshDir)),
	)

	if _, err := app.Sh(strings.Join(script, " && ")); err != nil {
		return 0, fmt.Errorf("%w: failed to update %s: %s", errdefs.ErrOperation, file, executionMessage(err))
	}
	return added, nil
}

// homeDir returns the home directory of name from the guest's passwd
// database, falling back to /home/<name>.
func homeDir(app session.Appliance, name string) string {
	out, err := app.Command([]string{"getent", "passwd", name})
	if err != nil {
		return "/home/" + name
	}
	fields := strings.Split(strings.TrimSpace(out), ":")
	if len(fields) < 6 || fields[5] == "" {
		return "/home/" + name
	}
	return fields[5]
}

// keyIdentity returns the "type base64" part of an authorized_keys line.
func keyIdentity(line string) string {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub)))
}
