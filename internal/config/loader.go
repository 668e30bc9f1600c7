package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/crna-guide/internal/types"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CRNA_DATABASE_URL.
const EnvPrefix = "CRNA"

// envKeys are the scalar settings that may be overridden from the environment
// even when the config file does not mention them.
var envKeys = []string{
	"app.log_level",
	"app.log_format",
	"server.port",
	"server.read_timeout",
	"server.write_timeout",
	"server.rate_limit.enabled",
	"server.rate_limit.default_limit",
	"server.rate_limit.default_window",
	"database.url",
	"redis.addr",
	"redis.password",
	"redis.db",
	"redis.cache_ttl",
	"catalog.path",
	"engine.max_steps",
}

// Load reads configuration from a YAML file layered over Default(), then applies
// CRNA_* environment overrides. An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Slices decode element-wise onto the defaults, so a shorter list in the file
	// would keep stale trailing entries. Replace them wholesale instead.
	if v.IsSet("engine.required_prerequisites") {
		cfg.Engine.RequiredPrerequisites = v.GetStringSlice("engine.required_prerequisites")
	}
	if v.IsSet("engine.severity_order") {
		cfg.Engine.SeverityOrder = cfg.Engine.SeverityOrder[:0]
		for _, m := range v.GetStringSlice("engine.severity_order") {
			cfg.Engine.SeverityOrder = append(cfg.Engine.SeverityOrder, supportMode(m))
		}
	}
	for key, dst := range map[string]*[]string{
		"server.rate_limit.whitelist": &cfg.Server.RateLimit.Whitelist,
		"server.rate_limit.blacklist": &cfg.Server.RateLimit.Blacklist,
	} {
		if v.IsSet(key) {
			*dst = v.GetStringSlice(key)
		}
	}
	normalizePrerequisites(&cfg.Engine)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the nearest module root, if present.
func loadEnvFile() {
	candidates := []string{".env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func supportMode(s string) types.SupportMode {
	return types.SupportMode(strings.ToLower(strings.TrimSpace(s)))
}

func normalizePrerequisites(e *EngineConfig) {
	out := make([]string, 0, len(e.RequiredPrerequisites))
	seen := make(map[string]bool)
	for _, name := range e.RequiredPrerequisites {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	e.RequiredPrerequisites = out
}
