package config

import "time"

// Config holds gateway configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	Verbose           bool          `mapstructure:"verbose" yaml:"verbose"`

	// Channel name patterns marking private and presence channels. Presence
	// channels authenticate as private even if listed only here.
	PrivateChannels  []string `mapstructure:"private_channels" yaml:"private_channels"`
	PresenceChannels []string `mapstructure:"presence_channels" yaml:"presence_channels"`

	// ClientEvents is the allowed client-event name pattern set.
	ClientEvents []string `mapstructure:"client_events" yaml:"client_events"`

	// HookChannels marks webhook-enabled channels. Empty disables webhooks.
	HookChannels []string `mapstructure:"hook_channels" yaml:"hook_channels"`

	AuthHost     string        `mapstructure:"auth_host" yaml:"auth_host"`
	AuthEndpoint string        `mapstructure:"auth_endpoint" yaml:"auth_endpoint"`
	AuthTimeout  time.Duration `mapstructure:"auth_timeout" yaml:"auth_timeout"`

	// HookHost falls back to AuthHost when empty.
	HookHost     string        `mapstructure:"hook_host" yaml:"hook_host"`
	HookEndpoint string        `mapstructure:"hook_endpoint" yaml:"hook_endpoint"`
	HookTimeout  time.Duration `mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// GatewaySecret enables HS256 signing of webhook requests when set.
	GatewaySecret string `mapstructure:"gateway_secret" yaml:"gateway_secret"`

	// DatabasePath locates the SQLite delivery journal.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		PrivateChannels:   []string{"private-*", "presence-*"},
		PresenceChannels:  []string{"presence-*"},
		ClientEvents:      []string{"client-*"},
		AuthHost:          "http://localhost:3000",
		AuthEndpoint:      "/auth",
		AuthTimeout:       5 * time.Second,
		HookEndpoint:      "/hooks",
		HookTimeout:       10 * time.Second,
		DatabasePath:      "channelgate.db",
	}
}

// ResolvedHookHost returns the webhook host, falling back to the auth host.
func (c *Config) ResolvedHookHost() string {
	if c.HookHost != "" {
		return c.HookHost
	}
	return c.AuthHost
}

// ResolvedLogLevel maps the verbose toggle onto the log level.
func (c *Config) ResolvedLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}
