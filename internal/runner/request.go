package runner

import (
	"strings"

	"github.com/systmms/dbpassrotate/internal/config"
	"github.com/systmms/dbpassrotate/internal/secure"
)

// Request is one rotation event: a user, their current and new password,
// and the databases to apply it to, in order.
type Request struct {
	Username    string
	Password    *secure.SecureBuffer
	NewPassword *secure.SecureBuffer
	Databases   []string
}

// NewRequest moves both passwords into protected memory
func NewRequest(username, password, newPassword string, databases []string) (*Request, error) {
	current, err := secure.NewSecureString(password)
	if err != nil {
		return nil, err
	}
	next, err := secure.NewSecureString(newPassword)
	if err != nil {
		current.Destroy()
		return nil, err
	}

	dbs := make([]string, len(databases))
	copy(dbs, databases)

	return &Request{
		Username:    username,
		Password:    current,
		NewPassword: next,
		Databases:   dbs,
	}, nil
}

// Destroy releases both protected passwords
func (r *Request) Destroy() {
	r.Password.Destroy()
	r.NewPassword.Destroy()
}

// ParseDatabaseNames splits a comma separated list of identifiers.
// Whitespace around each name is trimmed and empty names are dropped, so
// "a,,b" yields two databases rather than reporting a missing url for an
// empty name. Order and duplicates are kept.
func ParseDatabaseNames(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// ResolveDatabaseNames returns the names given on the command line, or the
// db_names setting when none were given. Neither present means no databases.
func ResolveDatabaseNames(arg string, given bool, settings *config.Settings) []string {
	if given {
		return ParseDatabaseNames(arg)
	}
	raw, ok := settings.DatabaseNames()
	if !ok {
		return nil
	}
	return ParseDatabaseNames(raw)
}
