package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/hivefund/ledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// DonorIDKey is the context key for storing the authenticated donor ID.
	DonorIDKey contextKey = "donor_id"
	// DonorNameKey is the context key for storing the donor's display name.
	DonorNameKey contextKey = "donor_name"
)

// GetDonorID extracts the donor ID from the context.
// Returns empty string if not found.
func GetDonorID(ctx context.Context) string {
	donorID, _ := ctx.Value(DonorIDKey).(string)
	return donorID
}

// GetDonorName extracts the donor display name from the context.
// Returns empty string if not found.
func GetDonorName(ctx context.Context) string {
	name, _ := ctx.Value(DonorNameKey).(string)
	return name
}

// WithDonor returns a context carrying the donor identity.
func WithDonor(ctx context.Context, donorID, displayName string) context.Context {
	ctx = context.WithValue(ctx, DonorIDKey, donorID)
	return context.WithValue(ctx, DonorNameKey, displayName)
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the donor ID and display name to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithDonor(ctx, claims.DonorID, claims.DisplayName), req)
		}
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication. Guests donate without a donor identity and
// show up as anonymous.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Invalid tokens are ignored: the caller is served as a guest.
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithDonor(ctx, claims.DonorID, claims.DisplayName)
				}
			}

			return next(ctx, req)
		}
	}
}
