package middleware

import "context"

type actorKey struct{}

// Actor is the authenticated operator identity seeded by Auth.
type Actor struct {
	UserID  string
	StoreID string
	Role    string
}

// WithActor stores the operator identity on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the authenticated operator, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// UserIDFromContext returns the operator's user id or "".
func UserIDFromContext(ctx context.Context) string {
	actor, _ := ActorFromContext(ctx)
	return actor.UserID
}
