package server

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppConfig defines application configuration loaded from files and environment.
type AppConfig struct {
	Env                    string        `koanf:"env"`
	Listen                 string        `koanf:"listen"`
	AllowInsecureTransport bool          `koanf:"allow_insecure_transport"`
	ClientsFile            string        `koanf:"clients_file"`
	CodeTTL                time.Duration `koanf:"code_ttl"`
	TokenTTL               time.Duration `koanf:"token_ttl"`
	Valkey                 ValkeyConfig  `koanf:"valkey"`
	Database               DSNConfig     `koanf:"database"`
	JWT                    JWTConfig     `koanf:"jwt"`
}

type ValkeyConfig struct {
	Addr   string `koanf:"addr"`
	Prefix string `koanf:"prefix"`
}

type DSNConfig struct {
	DSN string `koanf:"dsn"`
}

type JWTConfig struct {
	Enabled bool   `koanf:"enabled"`
	KeyID   string `koanf:"key_id"`
	Secret  string `koanf:"secret"`
}

var (
	cfgOnce sync.Once
	cfgInst *AppConfig
)

// GetConfig loads and returns the singleton AppConfig. Loading order:
// 1) config/config.yaml (optional)
// 2) config/config.<APP_ENV>.yaml (optional), APP_ENV defaults to "local"
// 3) Environment variables with prefix OAUTH2_ mapped using __ as nested separator, e.g. OAUTH2_VALKEY__ADDR
func GetConfig() *AppConfig {
	cfgOnce.Do(func() {
		k := koanf.New(".")
		// Config directory (CONFIG_DIR) default ./config
		configDir := os.Getenv("CONFIG_DIR")
		if configDir == "" {
			configDir = "config"
		}
		// Whether to load files (default: disabled to keep tests isolated)
		loadFiles := strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "1") || strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "true")
		// 1) base file
		if loadFiles {
			base := filepath.Join(configDir, "config.yaml")
			if _, err := os.Stat(base); err == nil {
				if err := k.Load(file.Provider(base), yaml.Parser()); err != nil {
					log.Printf("config: failed loading base: %v", err)
				}
			}
		}
		// 2) env-specific file
		envName := os.Getenv("APP_ENV")
		if envName == "" {
			envName = "local"
		}
		if loadFiles {
			envFile := filepath.Join(configDir, "config."+envName+".yaml")
			if _, err := os.Stat(envFile); err == nil {
				if err := k.Load(file.Provider(envFile), yaml.Parser()); err != nil {
					log.Printf("config: failed loading env file: %v", err)
				}
			}
		}
		// 3) env vars: OAUTH2_ prefix, __ delim for nesting
		_ = k.Load(env.Provider("OAUTH2_", "__", func(s string) string {
			// OAUTH2_VALKEY__ADDR -> valkey.addr
			return strings.ToLower(strings.TrimPrefix(s, "OAUTH2_"))
		}), nil)

		var c AppConfig
		if err := k.Unmarshal("", &c); err != nil {
			log.Printf("config: unmarshal error: %v", err)
		}
		if c.Env == "" {
			c.Env = envName
		}
		if c.Listen == "" {
			c.Listen = ":9096"
		}
		cfgInst = &c
	})
	return cfgInst
}
