package auth

import "context"

type subjectKey struct{}

// WithSubject stores the authenticated user id; JWTMiddleware sets it from
// the token's sub claim.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFromContext returns "" for unauthenticated requests.
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}
