package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/homefinder/internal/common"
	"github.com/dmitrijs2005/homefinder/internal/devapi/auth"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by requireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*auth.Claims)
	return c, ok
}

func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, response{Message: "missing access token"})
			return
		}

		claims, err := h.users.Authenticate(r.Context(), token)
		if err != nil {
			h.logger.Debug(r.Context(), "token rejected", "error", err)
			writeJSON(w, http.StatusUnauthorized, response{Message: "invalid or expired access token"})
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(value string) (string, bool) {
	if !strings.HasPrefix(value, common.BearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(value[len(common.BearerPrefix):])
	if token == "" {
		return "", false
	}

	return token, true
}
