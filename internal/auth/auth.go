// Package auth verifies caller identity and supplies the owner id that
// document operations act on. Verification is OIDC bearer-token based;
// the document domain never sees raw tokens.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/docvault/docvault/pkg/handlers"
	"github.com/docvault/docvault/pkg/lifecycle"
)

type contextKey struct{}

var ownerKey contextKey

// ErrUnauthorized indicates a missing, malformed, or unverifiable token.
var ErrUnauthorized = errors.New("unauthorized")

// OwnerID returns the verified owner id stored by the middleware.
func OwnerID(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey).(string)
	return owner, ok && owner != ""
}

// WithOwnerID returns a context carrying the given owner id. Exposed for
// handler tests.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

// System verifies bearer tokens and exposes the verification middleware.
type System interface {
	Start(lc *lifecycle.Coordinator) error
	Middleware() func(http.Handler) http.Handler
}

type oidcSystem struct {
	cfg    *Config
	logger *slog.Logger

	mu       sync.RWMutex
	verifier *oidc.IDTokenVerifier
}

// New creates an auth system. Provider discovery is deferred to Start so
// construction never touches the network.
func New(cfg *Config, logger *slog.Logger) System {
	return &oidcSystem{
		cfg:    cfg,
		logger: logger.With("system", "auth"),
	}
}

func (s *oidcSystem) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting auth system", "issuer", s.cfg.IssuerURL)

	lc.OnStartup(func() {
		provider, err := oidc.NewProvider(lc.Context(), s.cfg.IssuerURL)
		if err != nil {
			s.logger.Error("oidc provider discovery failed", "error", err)
			return
		}

		s.mu.Lock()
		s.verifier = provider.Verifier(&oidc.Config{ClientID: s.cfg.ClientID})
		s.mu.Unlock()

		s.logger.Info("auth system ready")
	})

	return nil
}

// Middleware verifies the Authorization bearer token and stores the token
// subject as the owner id for downstream handlers.
func (s *oidcSystem) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verifier := s.currentVerifier()
			if verifier == nil {
				handlers.RespondError(w, s.logger, http.StatusServiceUnavailable, ErrUnauthorized)
				return
			}

			raw, ok := bearerToken(r)
			if !ok {
				handlers.RespondError(w, s.logger, http.StatusUnauthorized, ErrUnauthorized)
				return
			}

			token, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				s.logger.Warn("token verification failed", "error", err)
				handlers.RespondError(w, s.logger, http.StatusUnauthorized, ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), token.Subject)))
		})
	}
}

func (s *oidcSystem) currentVerifier() *oidc.IDTokenVerifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifier
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
