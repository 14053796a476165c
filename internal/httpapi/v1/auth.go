package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const ctxKeyActor ctxKey = "actor"

// headerUserID names the acting user when bearer auth is disabled.
const headerUserID = "X-User-ID"

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	return tok, tok != ""
}

// verifyHS256 checks signature, expiry and the configured issuer/audience and returns the subject.
func (s *Server) verifyHS256(raw string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.auth.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.auth.Issuer))
	}
	if s.auth.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.auth.Audience))
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.auth.Secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}
	return claims.GetSubject()
}

// actor resolves the acting user and stores it in the request context. With a
// configured secret the user is the token's sub claim; otherwise the X-User-ID
// header is trusted. Requests without a user get 401.
func (s *Server) actor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var user string
			if s.auth.Enabled() {
				tok, ok := parseBearerToken(r)
				if !ok {
					writeErr(w, http.StatusUnauthorized, "missing bearer token", "UNAUTHORIZED")
					return
				}
				sub, err := s.verifyHS256(tok)
				if err != nil {
					s.log.Debug("token rejected", "err", err)
					writeErr(w, http.StatusUnauthorized, "invalid token", "UNAUTHORIZED")
					return
				}
				user = strings.TrimSpace(sub)
			} else {
				user = strings.TrimSpace(r.Header.Get(headerUserID))
			}
			if user == "" {
				writeErr(w, http.StatusUnauthorized, "acting user required", "UNAUTHORIZED")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyActor, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFrom(ctx context.Context) string {
	u, _ := ctx.Value(ctxKeyActor).(string)
	return u
}
