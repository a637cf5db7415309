package httpapi

import (
	"net/http"

	"github.com/riskibarqy/grid-fantasy/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	verifier TokenVerifier,
	profiles ProfileSyncer,
	logger *logging.Logger,
	corsAllowedOrigins []string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	auth := authChain{verifier: verifier, profiles: profiles, logger: logger}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerPublicDomainRoutes(mux, handler)
	registerAuthorizedRoutes(mux, handler, auth)
	registerAdminRoutes(mux, handler, auth)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

type authChain struct {
	verifier TokenVerifier
	profiles ProfileSyncer
	logger   *logging.Logger
}

func (a authChain) user(fn http.HandlerFunc) http.Handler {
	return RequireAuth(a.verifier, a.profiles, a.logger, fn)
}

func (a authChain) admin(fn http.HandlerFunc) http.Handler {
	return RequireAuth(a.verifier, a.profiles, a.logger, RequireAdmin(fn))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
