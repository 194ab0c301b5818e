package auth

import (
	"fmt"

	"mpdimport/internal/config"
)

// Permissions checked by the engine's callers.
const (
	ImportRun  = "import.run"
	ImportRead = "import.read"
)

// ForbiddenError indicates missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

// Principal is an authenticated caller.
type Principal struct {
	ActorID     string
	Roles       []string
	Permissions []string
	Source      string
}

// Service resolves principal permissions against the configured roles.
type Service struct {
	Config *config.Config
}

// Permissions returns the explicit permissions of p plus those granted by its roles.
func (s Service) Permissions(p Principal) []string {
	seen := map[string]bool{}
	var out []string
	add := func(perms []string) {
		for _, perm := range perms {
			if perm != "" && !seen[perm] {
				seen[perm] = true
				out = append(out, perm)
			}
		}
	}
	add(p.Permissions)
	if s.Config != nil {
		add(s.Config.RolePermissions(p.Roles))
	}
	return out
}

func (s Service) HasPermission(p Principal, perm string) bool {
	for _, have := range s.Permissions(p) {
		if have == perm {
			return true
		}
	}
	return false
}

// Require returns a ForbiddenError when p lacks perm.
func (s Service) Require(p Principal, perm string) error {
	if !s.HasPermission(p, perm) {
		return ForbiddenError{Permission: perm}
	}
	return nil
}
