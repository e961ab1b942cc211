package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerConfig holds the traintastic-server runtime configuration.
type ServerConfig struct {
	ListenAddress    string        `mapstructure:"listen_address"`
	DiscoveryPort    uint16        `mapstructure:"discovery_port"`
	DataDir          string        `mapstructure:"data_dir"`
	Tray             bool          `mapstructure:"tray"`
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout"`
	LogLevel         string        `mapstructure:"log_level"`
	LocalePath       string        `mapstructure:"locale_path"`
}

// DefaultServerConfig returns the baseline configuration applied
// before any file or flag overrides.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddress:    ":5690",
		DiscoveryPort:    5690,
		DataDir:          defaultDataDir(),
		Tray:             false,
		HeartbeatTimeout: 5 * time.Second,
		LogLevel:         "info",
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".traintastic")
	}
	return ".traintastic"
}

// BindFlags registers the server's command-line flags onto fs, ready
// to be passed to Load.
func BindFlags(fs *pflag.FlagSet) {
	def := DefaultServerConfig()
	fs.String("listen-address", def.ListenAddress, "address the session server listens on")
	fs.Uint16("discovery-port", def.DiscoveryPort, "UDP port the discovery responder listens on")
	fs.String("datadir", def.DataDir, "directory holding worlds, settings, and logs")
	fs.Bool("tray", def.Tray, "run with a system tray icon instead of a console window")
	fs.Duration("heartbeat-timeout", def.HeartbeatTimeout, "hardware kernel keep-alive timeout")
	fs.String("log-level", def.LogLevel, "log level: trace, debug, info, warn, error")
}

// Load resolves the effective configuration: defaults, then
// datadir/traintastic.yaml (if present), then TRAINTASTIC_* environment
// variables, then flags explicitly set on fs.
//
// DataDir must be resolved before the config file path is known, so fs
// is consulted for --datadir up front. LocalePath is taken only from
// the TRAINTASTIC_LOCALE_PATH environment variable; every other field
// follows the normal viper precedence order.
func Load(fs *pflag.FlagSet) (*ServerConfig, error) {
	def := DefaultServerConfig()

	v := viper.New()
	v.SetEnvPrefix("traintastic")
	v.AutomaticEnv()

	v.SetDefault("listen_address", def.ListenAddress)
	v.SetDefault("discovery_port", def.DiscoveryPort)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("tray", def.Tray)
	v.SetDefault("heartbeat_timeout", def.HeartbeatTimeout)
	v.SetDefault("log_level", def.LogLevel)

	dataDir := def.DataDir
	if fs != nil {
		if s, err := fs.GetString("datadir"); err == nil && fs.Changed("datadir") {
			dataDir = s
		}
	}

	configPath := filepath.Join(dataDir, "traintastic.yaml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	if fs != nil {
		binds := map[string]string{
			"listen_address":    "listen-address",
			"discovery_port":    "discovery-port",
			"data_dir":          "datadir",
			"tray":              "tray",
			"heartbeat_timeout": "heartbeat-timeout",
			"log_level":         "log-level",
		}
		for key, flagName := range binds {
			if f := fs.Lookup(flagName); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: binding flag %s: %w", flagName, err)
				}
			}
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if locale := os.Getenv("TRAINTASTIC_LOCALE_PATH"); locale != "" {
		cfg.LocalePath = locale
	}

	return &cfg, nil
}
