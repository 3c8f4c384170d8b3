package ident

import "context"

type ctxKey struct{}

// WithGenerator returns a context carrying an identifier generator. The
// pipeline runner installs a deterministic generator here when reproducible
// identifiers are configured.
func WithGenerator(ctx context.Context, g Generator) context.Context {
	return context.WithValue(ctx, ctxKey{}, g)
}

// FromContext returns the identifier generator carried by ctx, or the
// default random generator. Operations should mint identifiers for their
// outputs through this so pipeline re-runs can be made reproducible.
func FromContext(ctx context.Context) Generator {
	if g, ok := ctx.Value(ctxKey{}).(Generator); ok {
		return g
	}
	return Random{}
}
