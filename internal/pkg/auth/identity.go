package auth

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

type identityKey struct{}

// Identity is the verified caller of a request
type Identity struct {
	UserID uuid.UUID
	Email  string
	// DBRole is the role claim of the session token
	DBRole string
	// Claims is the JSON form of the token claims, published to the database session
	Claims string
}

// NewIdentity builds an Identity from verified claims
func NewIdentity(c *Claims) (Identity, error) {
	id, err := c.UserID()
	if err != nil {
		return Identity{}, err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: id, Email: c.Email, DBRole: c.Role, Claims: string(raw)}, nil
}

// WithIdentity attaches id to ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached to ctx, if any
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
