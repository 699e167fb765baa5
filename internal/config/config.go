package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DefaultChannel    string        `mapstructure:"default_channel" yaml:"default_channel"`
	MaxUsers          int           `mapstructure:"max_users" yaml:"max_users"`
	SendBuffer        int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	MessageRateLimit  int           `mapstructure:"message_rate_limit" yaml:"message_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DefaultChannel:    "lobby",
		MaxUsers:          32,
		SendBuffer:        16,
		MessageRateLimit:  0, // requests per connection per minute, 0 = unlimited
	}
}
