// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/app/system/tracing"
	"go.uber.org/zap"
)

// devSessionKey is the built-in signing key; it is refused in prod.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for StudyHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: STUDYHUB_MONGO_URI, STUDYHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "studyhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "studyhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "336h", Desc: "Session cookie lifetime"},

	// Sign-up and sign-in
	{Name: "university_email_domain", Default: "unimelb.edu.au", Desc: "Registration email domain (subdomains accepted; blank accepts any)"},
	{Name: "admin_email", Default: "", Desc: "Email of an existing account to promote to admin on startup"},
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts per client IP per minute"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts per account per 5 minutes"},
	{Name: "register_limit", Default: 20, Desc: "Registrations per client IP per hour"},

	// Progress accounting
	{Name: "time_zone", Default: "Australia/Melbourne", Desc: "Reference time zone for session dates and times"},
	{Name: "default_target_hours", Default: "10", Desc: "Target hours for groups that have not set one"},
	{Name: "reconcile_interval", Default: "1m", Desc: "How often ended sessions are converted into group progress"},
	{Name: "reconcile_lock_ttl", Default: "2m", Desc: "Lease lifetime for the reconcile worker"},

	// Moderation
	{Name: "moderation_workers", Default: 4, Desc: "Background moderation workers"},
	{Name: "moderation_queue", Default: 256, Desc: "Moderation queue size"},
	{Name: "moderation_timeout", Default: "3s", Desc: "Timeout for one external toxicity check"},
	{Name: "moderation_min_confidence", Default: "0.8", Desc: "Lowest word-list confidence that blocks content"},
	{Name: "perspective_api_key", Default: "", Desc: "Perspective API key (blank disables the external check)"},
	{Name: "perspective_url", Default: "", Desc: "Perspective endpoint override"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "List queries"},
	{Name: "timeout_long", Default: "30s", Desc: "Multi-collection writes"},
	{Name: "timeout_batch", Default: "60s", Desc: "One reconciliation pass"},

	// Tracing
	{Name: "trace_exporter", Default: "none", Desc: "Trace exporter: none, stdout or otlp"},
	{Name: "otlp_endpoint", Default: "localhost:4317", Desc: "OTLP gRPC collector address"},
	{Name: "otlp_insecure", Default: true, Desc: "Disable TLS to the OTLP collector"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// STUDYHUB_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STUDYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	target, err := parseFloat(appValues.String("default_target_hours"))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("default_target_hours: %w", err)
	}
	minConf, err := parseFloat(appValues.String("moderation_min_confidence"))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("moderation_min_confidence: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 14*24*time.Hour),

		UniversityEmailDomain: strings.TrimPrefix(strings.TrimSpace(appValues.String("university_email_domain")), "@"),
		AdminEmail:            strings.TrimSpace(appValues.String("admin_email")),
		LoginIPLimit:          appValues.Int("login_ip_limit"),
		LoginEmailLimit:       appValues.Int("login_email_limit"),
		RegisterLimit:         appValues.Int("register_limit"),

		TimeZone:           appValues.String("time_zone"),
		DefaultTargetHours: target,
		ReconcileInterval:  appValues.Duration("reconcile_interval", time.Minute),
		ReconcileLockTTL:   appValues.Duration("reconcile_lock_ttl", 2*time.Minute),

		ModerationWorkers:       appValues.Int("moderation_workers"),
		ModerationQueue:         appValues.Int("moderation_queue"),
		ModerationTimeout:       appValues.Duration("moderation_timeout", 3*time.Second),
		ModerationMinConfidence: minConf,
		PerspectiveAPIKey:       appValues.String("perspective_api_key"),
		PerspectiveURL:          appValues.String("perspective_url"),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
		TimeoutBatch:  appValues.Duration("timeout_batch", 0),

		TraceExporter: appValues.String("trace_exporter"),
		OTLPEndpoint:  appValues.String("otlp_endpoint"),
		OTLPInsecure:  appValues.Bool("otlp_insecure"),
	}

	return coreCfg, appCfg, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if !timezones.Valid(appCfg.TimeZone) {
		return fmt.Errorf("time_zone %q is not a known IANA zone", appCfg.TimeZone)
	}
	if appCfg.DefaultTargetHours <= 0 {
		return fmt.Errorf("default_target_hours must be positive, got %v", appCfg.DefaultTargetHours)
	}
	if appCfg.ReconcileInterval <= 0 {
		return fmt.Errorf("reconcile_interval must be positive")
	}
	if appCfg.ReconcileLockTTL < appCfg.ReconcileInterval {
		return fmt.Errorf("reconcile_lock_ttl (%v) must be at least reconcile_interval (%v)",
			appCfg.ReconcileLockTTL, appCfg.ReconcileInterval)
	}
	if appCfg.ModerationWorkers < 1 || appCfg.ModerationQueue < 1 {
		return fmt.Errorf("moderation_workers and moderation_queue must be at least 1")
	}
	if appCfg.ModerationMinConfidence < 0 || appCfg.ModerationMinConfidence > 1 {
		return fmt.Errorf("moderation_min_confidence must be between 0 and 1")
	}
	if appCfg.LoginIPLimit < 1 || appCfg.LoginEmailLimit < 1 || appCfg.RegisterLimit < 1 {
		return fmt.Errorf("login_ip_limit, login_email_limit and register_limit must be at least 1")
	}
	if !tracing.ValidExporter(appCfg.TraceExporter) {
		return fmt.Errorf("trace_exporter must be none, stdout or otlp, got %q", appCfg.TraceExporter)
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
		return fmt.Errorf("session_key must be changed from the development default in prod")
	}
	return nil
}
