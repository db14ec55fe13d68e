package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern tags the context with the matched chi route template so
// metrics and request logs label by pattern (/products/{slug}) rather than by
// raw path, keeping label cardinality bounded.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the tagged route template, or "".
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	pattern, _ := ctx.Value(routePatternKey{}).(string)
	return pattern
}
