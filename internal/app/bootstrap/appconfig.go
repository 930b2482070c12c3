// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (STUDYHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework side: ports, TLS, logging, CORS and body limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: studyhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Sign-up and sign-in
	UniversityEmailDomain string // registration requires an address at this domain (or a subdomain)
	AdminEmail            string // promoted to admin on startup if the account exists
	LoginIPLimit          int    // attempts per IP per minute
	LoginEmailLimit       int    // attempts per account per 5 minutes
	RegisterLimit         int    // registrations per IP per hour

	// Progress accounting
	TimeZone           string        // reference zone for session dates and times
	DefaultTargetHours float64       // used when a group has no target of its own
	ReconcileInterval  time.Duration // how often the background pass runs
	ReconcileLockTTL   time.Duration // lease lifetime; must exceed one pass

	// Moderation
	ModerationWorkers       int
	ModerationQueue         int
	ModerationTimeout       time.Duration
	ModerationMinConfidence float64
	PerspectiveAPIKey       string // blank disables the external detector
	PerspectiveURL          string

	// Timeouts (see system/timeouts)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
	TimeoutBatch  time.Duration

	// Tracing
	TraceExporter string // none | stdout | otlp
	OTLPEndpoint  string
	OTLPInsecure  bool
}
