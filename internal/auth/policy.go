package auth

import "github.com/iliyamo/notes-api/internal/model"

// Policy is an authorization requirement attached to a route group when the
// routes are registered. Role matching is strict equality.
type Policy struct {
	RequiredRole string
}

// AdminOnly admits identities whose role is exactly "admin".
var AdminOnly = Policy{RequiredRole: model.RoleAdmin}
