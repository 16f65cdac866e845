package api

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/playzone/playzone-api/models"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// Identity describes the authenticated caller of a request
type Identity struct {
	UserID primitive.ObjectID
	Role   string
}

// IsStaff reports whether the caller holds a moderation role
func (i Identity) IsStaff() bool {
	return i.Role == models.RoleAdmin || i.Role == models.RoleModerator
}

type identityContextKey struct{}

// WithIdentity stores the caller identity on the context
func WithIdentity(parent context.Context, id Identity) context.Context {
	return context.WithValue(parent, identityContextKey{}, id)
}

// IdentityFromContext returns the caller identity stored by the auth
// middleware, if any
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
