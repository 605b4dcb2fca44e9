package middleware

import (
	"context"
	"net/http"

	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/response"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	"github.com/Pesokrava/perfume_storefront/internal/usecase/session"
)

// SessionHeader carries the shopper session id in both directions
const SessionHeader = "X-Session-ID"

// SessionSource opens and looks up shopper sessions
type SessionSource interface {
	Open(ctx context.Context) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
}

// Session resolves the X-Session-ID header to a live session, opening a new
// one when the header is missing or unknown. The id is echoed back.
func Session(sessions SessionSource, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var sess *session.Session
			if id := r.Header.Get(SessionHeader); id != "" {
				if found, err := sessions.Get(ctx, id); err == nil {
					sess = found
				} else {
					log.Debugf("Session %s not found, opening a new one", id)
				}
			}

			if sess == nil {
				opened, err := sessions.Open(ctx)
				if err != nil {
					log.Error("Failed to open session", err)
					response.Error(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				sess = opened
			}

			w.Header().Set(SessionHeader, sess.ID)
			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
		})
	}
}
