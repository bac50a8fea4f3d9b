// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct holds everything specific to the volunteer matching service.
type AppConfig struct {
	// Document store backend: "firestore", "mongo" or "memory"
	StoreBackend string

	// Firebase project (identity provider, and the Firestore backend)
	FirebaseProjectID         string
	FirebaseCredentialsFile   string // service account JSON file
	FirebaseCredentialsBase64 string // service account JSON, base64 encoded

	// MongoDB connection configuration (only used if StoreBackend is "mongo")
	MongoURI      string
	MongoDatabase string

	// Session cookie configuration
	SessionCookieName string
	SessionExpiry     time.Duration
	SecureCookies     bool

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAdmin string

	// Public submission rate limit per client IP
	SubmitRateLimit int // requests per minute
	SubmitRateBurst int

	// Proxies (comma-separated IPs/CIDRs) allowed to set X-Forwarded-For.
	// Empty means the limiter keys on the direct peer address.
	TrustedProxies string

	// Storage deadlines (zero keeps the built-in default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
