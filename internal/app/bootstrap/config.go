// internal/app/bootstrap/config.go
package bootstrap

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/app/system/ratelimit"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"
)

// appConfigKeys defines the configuration keys for Mansiuk.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: store_backend, mongo_uri, etc.
//   - Environment variables: MANSIUK_STORE_BACKEND, MANSIUK_MONGO_URI, etc.
//   - Command-line flags: --store_backend, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: BackendFirestore, Desc: "Document store: 'firestore', 'mongo' or 'memory'"},

	// Firebase
	{Name: "firebase_project_id", Default: "", Desc: "Firebase project ID"},
	{Name: "firebase_credentials_file", Default: "", Desc: "Path to a Firebase service account JSON file"},
	{Name: "firebase_credentials_base64", Default: "", Desc: "Firebase service account JSON, base64 encoded"},

	// MongoDB
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mansiuk", Desc: "MongoDB database name"},

	// Session cookie
	{Name: "session_cookie_name", Default: "mansiuk_session", Desc: "Session cookie name"},
	{Name: "session_expiry", Default: auth.DefaultSessionExpiry.String(), Desc: "Session cookie lifetime (e.g., 120h)"},
	{Name: "secure_cookies", Default: false, Desc: "Mark the session cookie Secure (always on in prod)"},

	// Audit logging
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Public submission rate limit
	{Name: "submit_rate_limit", Default: 5, Desc: "Public submissions allowed per client IP per minute"},
	{Name: "submit_rate_burst", Default: 3, Desc: "Public submission burst per client IP"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy IPs/CIDRs whose X-Forwarded-For is trusted"},

	// Storage deadlines
	{Name: "timeout_short", Default: timeouts.DefaultShort.String(), Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: timeouts.DefaultMedium.String(), Desc: "Deadline for list queries and single writes"},
	{Name: "timeout_long", Default: timeouts.DefaultLong.String(), Desc: "Deadline for multi-document workflow operations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, with precedence
// flags > env (WAFFLE_* for core, MANSIUK_* for app) > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MANSIUK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend: strings.ToLower(strings.TrimSpace(appValues.String("store_backend"))),

		FirebaseProjectID:         appValues.String("firebase_project_id"),
		FirebaseCredentialsFile:   appValues.String("firebase_credentials_file"),
		FirebaseCredentialsBase64: appValues.String("firebase_credentials_base64"),

		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		SessionCookieName: appValues.String("session_cookie_name"),
		SessionExpiry:     appValues.Duration("session_expiry", auth.DefaultSessionExpiry),
		SecureCookies:     appValues.Bool("secure_cookies"),

		AuditLogAdmin: appValues.String("audit_log_admin"),

		SubmitRateLimit: appValues.Int("submit_rate_limit"),
		SubmitRateBurst: appValues.Int("submit_rate_burst"),
		TrustedProxies:  appValues.String("trusted_proxies"),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	// Production always sends the cookie over HTTPS only.
	if coreCfg.Env == "prod" && !appCfg.SecureCookies {
		appCfg.SecureCookies = true
		logger.Info("secure_cookies forced on in prod")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Connection settings are checked here so a bad value fails before any
// backend is dialed.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case BackendFirestore, BackendMemory:
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if strings.TrimSpace(appCfg.MongoDatabase) == "" {
			return fmt.Errorf("mongo backend requires mongo_database")
		}
	default:
		return fmt.Errorf("unknown store_backend %q (want firestore, mongo or memory)", appCfg.StoreBackend)
	}

	// The identity provider is Firebase whatever the document store.
	if strings.TrimSpace(appCfg.FirebaseProjectID) == "" {
		return fmt.Errorf("firebase_project_id is required")
	}
	if appCfg.FirebaseCredentialsBase64 != "" {
		if _, err := base64.StdEncoding.DecodeString(appCfg.FirebaseCredentialsBase64); err != nil {
			return fmt.Errorf("firebase_credentials_base64 is not valid base64: %w", err)
		}
	}

	if strings.TrimSpace(appCfg.SessionCookieName) == "" {
		return fmt.Errorf("session_cookie_name must not be empty")
	}
	if appCfg.SessionExpiry < 5*time.Minute || appCfg.SessionExpiry > 14*24*time.Hour {
		return fmt.Errorf("session_expiry must be between 5m and 336h, got %s", appCfg.SessionExpiry)
	}

	switch strings.ToLower(appCfg.AuditLogAdmin) {
	case "all", "db", "log", "off":
	default:
		return fmt.Errorf("audit_log_admin must be all, db, log or off, got %q", appCfg.AuditLogAdmin)
	}

	if appCfg.SubmitRateLimit <= 0 || appCfg.SubmitRateBurst <= 0 {
		return fmt.Errorf("submit_rate_limit and submit_rate_burst must be positive")
	}
	if _, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted_proxies: %w", err)
	}

	return nil
}
