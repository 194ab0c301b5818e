package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"mpdimport/internal/config"
)

func TestRequire(t *testing.T) {
	svc := Service{Config: config.Default("")}

	owner := Principal{ActorID: "ana", Roles: []string{"owner"}}
	assert.NoError(t, svc.Require(owner, ImportRun))
	assert.NoError(t, svc.Require(owner, ImportRead))

	viewer := Principal{ActorID: "bo", Roles: []string{"viewer"}}
	assert.NoError(t, svc.Require(viewer, ImportRead))
	err := svc.Require(viewer, ImportRun)
	var forbidden ForbiddenError
	assert.True(t, errors.As(err, &forbidden))
	assert.Equal(t, ImportRun, forbidden.Permission)
	assert.EqualError(t, err, "permission import.run required")

	direct := Principal{ActorID: "ci", Permissions: []string{ImportRun}}
	assert.NoError(t, svc.Require(direct, ImportRun))
	assert.Error(t, Service{}.Require(Principal{Roles: []string{"owner"}}, ImportRead))
}

func TestPermissionsDeduplicates(t *testing.T) {
	svc := Service{Config: config.Default("")}
	perms := svc.Permissions(Principal{Roles: []string{"owner", "viewer"}, Permissions: []string{ImportRead, ""}})
	assert.Equal(t, []string{ImportRead, ImportRun}, perms)
}
