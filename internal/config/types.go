package config

// Config is the root configuration structure for reportkit.
// Serialised to ~/.reportkit/config.json.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Server   ServerConfig   `mapstructure:"server"   json:"server"`
	Session  SessionConfig  `mapstructure:"session"  json:"session"`
	Client   ClientConfig   `mapstructure:"client"   json:"client"`
}

// DatabaseConfig controls the storage backend.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// ServerConfig controls the API server daemon.
type ServerConfig struct {
	// Port is the localhost HTTP port the server listens on (default: 7190).
	Port int `mapstructure:"port" json:"port"`
	// EvidenceDir is where uploaded evidence blobs are written.
	EvidenceDir string `mapstructure:"evidence_dir" json:"evidence_dir"`
}

// SessionConfig controls token issuing on the server side.
type SessionConfig struct {
	// Secret signs access tokens. Generated on first run when empty.
	Secret string `mapstructure:"secret" json:"secret"`
	// AccessTTLMinutes is the access-token lifetime (default: 15).
	AccessTTLMinutes int `mapstructure:"access_ttl_minutes" json:"access_ttl_minutes"`
	// RefreshTTLHours is the refresh-token lifetime (default: 720 = 30 days).
	RefreshTTLHours int `mapstructure:"refresh_ttl_hours" json:"refresh_ttl_hours"`
	// PurgeSchedule is the cron expression for clearing expired refresh
	// tokens (default: "@hourly").
	PurgeSchedule string `mapstructure:"purge_schedule" json:"purge_schedule"`
}

// ClientConfig controls the assessor-facing commands (compose, report, ui).
type ClientConfig struct {
	// BaseURL is the API server the client talks to.
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// TokenPath is where access/refresh tokens are persisted.
	TokenPath string `mapstructure:"token_path" json:"token_path"`
	// CatalogTTLSeconds bounds the client-side catalog cache age; 0 keeps
	// entries until a mutating call invalidates them.
	CatalogTTLSeconds int `mapstructure:"catalog_ttl_seconds" json:"catalog_ttl_seconds"`
}
