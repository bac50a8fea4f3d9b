// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	activitylogsfeature "github.com/dalemusser/mansiuk/internal/app/features/activitylogs"
	applicationsfeature "github.com/dalemusser/mansiuk/internal/app/features/applications"
	errorsfeature "github.com/dalemusser/mansiuk/internal/app/features/errors"
	healthfeature "github.com/dalemusser/mansiuk/internal/app/features/health"
	profilefeature "github.com/dalemusser/mansiuk/internal/app/features/profile"
	requestsfeature "github.com/dalemusser/mansiuk/internal/app/features/requests"
	sessionfeature "github.com/dalemusser/mansiuk/internal/app/features/session"
	volunteersfeature "github.com/dalemusser/mansiuk/internal/app/features/volunteers"
	activitylogstore "github.com/dalemusser/mansiuk/internal/app/store/activitylog"
	userstore "github.com/dalemusser/mansiuk/internal/app/store/users"
	"github.com/dalemusser/mansiuk/internal/app/system/auditlog"
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/app/system/metrics"
	"github.com/dalemusser/mansiuk/internal/app/system/ratelimit"
	"github.com/dalemusser/mansiuk/internal/app/workflow"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// submitLimiter is stopped by Shutdown.
var submitLimiter *ratelimit.Limiter

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Every feature shares one session
// manager, one workflow service and one error logger.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	sessionMgr, err := auth.NewSessionManager(deps.Verifier, appCfg.SessionCookieName, appCfg.SessionExpiry, appCfg.SecureCookies, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Role data is read on every request so reviews and suspensions take
	// effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.Store))

	errLog := errorsfeature.NewErrorLogger(logger)
	m := metrics.New()
	audit := auditlog.New(activitylogstore.New(deps.Store), logger, auditlog.Config{Admin: appCfg.AuditLogAdmin})
	svc := workflow.New(deps.Store, audit, m, logger)

	proxies, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted_proxies: %w", err)
	}
	if submitLimiter != nil {
		submitLimiter.Close()
	}
	submitLimiter = ratelimit.New(appCfg.SubmitRateLimit, appCfg.SubmitRateBurst, logger)
	submitLimiter.TrustProxies(proxies)

	r := chi.NewRouter()

	// Global auth middleware: loads the identity and user into context when
	// the caller presents a bearer token or session cookie.
	r.Use(sessionMgr.LoadSessionUser)

	// JSON fallbacks; set before mounting so sub-routers inherit them.
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check and metrics for load balancers and scrapers
	healthHandler := healthfeature.NewHandler(deps.Store, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	// Session cookie and own profile
	sessionHandler := sessionfeature.NewHandler(sessionMgr, errLog, logger)
	r.Mount("/session", sessionfeature.Routes(sessionHandler))

	profileHandler := profilefeature.NewHandler(deps.Store, errLog, logger)
	r.Mount("/me", profilefeature.Routes(profileHandler, sessionMgr))

	// Workflow
	requestsHandler := requestsfeature.NewHandler(deps.Store, svc, errLog, logger)
	r.Mount("/requests", requestsfeature.Routes(requestsHandler, sessionMgr, submitLimiter.Middleware))

	applicationsHandler := applicationsfeature.NewHandler(deps.Store, svc, errLog, logger)
	r.Mount("/applications", applicationsfeature.Routes(applicationsHandler, sessionMgr))

	volunteersHandler := volunteersfeature.NewHandler(deps.Store, svc, errLog, logger)
	r.Mount("/volunteers", volunteersfeature.Routes(volunteersHandler, sessionMgr))

	activityHandler := activitylogsfeature.NewHandler(deps.Store, errLog, logger)
	r.Mount("/activity-logs", activitylogsfeature.Routes(activityHandler, sessionMgr))

	return r, nil
}
