package api

import (
	"context"
	"time"

	"github.com/shaj13/go-guardian/auth"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

type ctxKey string

const (
	ctxRequestID ctxKey = "request_id"
	ctxUser      ctxKey = "user"
)

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithRequestID stores the request id in ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestID returns the id assigned by RequestLogger, or ""
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxRequestID).(string)
	return v
}

// WithUser stores an authenticated citizen in ctx
func WithUser(ctx context.Context, user auth.Info) context.Context {
	return context.WithValue(ctx, ctxUser, user)
}

// UserFromContext returns the citizen authenticated by SessionAuth
func UserFromContext(ctx context.Context) (auth.Info, bool) {
	u, ok := ctx.Value(ctxUser).(auth.Info)
	return u, ok && u != nil
}
