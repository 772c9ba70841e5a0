package routes

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/idcard-services/internal/cardsvc/token"
	"github.com/avvvet/idcard-services/internal/feedsvc/handlers"
)

// SetRoutes mounts the feed. The socket needs a feed access token, passed as
// ?jwt= (browsers cannot set headers on a websocket) or a bearer header,
// whose subject passes authorize.
func SetRoutes(r chi.Router, h *handlers.Handler, tokenAuth *jwtauth.JWTAuth, authorize func(string) bool) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(tokenAuth, jwtauth.TokenFromQuery, jwtauth.TokenFromHeader))
			r.Use(jwtauth.Authenticator)
			r.Use(feedScope(authorize))

			r.Get("/ws", h.HandleWebSocket)
		})
	})
}

// feedScope rejects verified tokens that are not feed tokens, e.g. a QR card
// token, and operators the gate does not know.
func feedScope(authorize func(string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			scope, _ := claims[token.ClaimScope].(string)
			operator, _ := claims["sub"].(string)
			if scope != token.ScopeFeed || operator == "" || !authorize(operator) {
				log.Warnf("feed access refused for %q", operator)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
