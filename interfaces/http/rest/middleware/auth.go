package middleware

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"graphdiff/pkg/auth"
	"graphdiff/pkg/errors"
)

// Authenticate validates the bearer token and attaches the caller to the
// request context. Callers over their per-user rate are rejected.
func Authenticate(validator *auth.JWTValidator, userLimiter *auth.KeyedRateLimiter, errorHandler *errors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errorHandler.Handle(w, r, errors.NewUnauthorizedError("missing authentication token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("ip", clientIP(r)),
					zap.String("path", r.URL.Path),
				)
				errorHandler.Handle(w, r, errors.NewUnauthorizedError(tokenMessage(err)))
				return
			}

			if userLimiter != nil {
				allowed, err := userLimiter.Allow(r.Context(), claims.UserID)
				if err != nil {
					errorHandler.Handle(w, r, err)
					return
				}
				if !allowed {
					errorHandler.Handle(w, r, errors.NewRateLimitError(userLimiter.Limit(), "minute").WithDetail("scope", "user"))
					return
				}
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Roles:  claims.Roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitByIP rejects clients over their per-IP rate
func RateLimitByIP(limiter *auth.KeyedRateLimiter, errorHandler *errors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				errorHandler.Handle(w, r, err)
				return
			}
			if !allowed {
				errorHandler.Handle(w, r, errors.NewRateLimitError(limiter.Limit(), "minute").WithDetail("scope", "ip"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenMessage(err error) string {
	switch err {
	case auth.ErrExpiredToken:
		return "token has expired"
	case auth.ErrInvalidSignature:
		return "invalid token signature"
	default:
		return "invalid token"
	}
}

// extractToken reads a bearer token from the Authorization header
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// clientIP returns the remote host. RealIP has already applied forwarding
// headers when the router runs it.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
