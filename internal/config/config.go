// Package config loads the gateway configuration.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional TOML or YAML file named by SUREFI_CONFIG, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable holding the optional config file path.
const ConfigFileEnv = "SUREFI_CONFIG"

// Config holds all configuration for the server
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Chain     ChainConfig     `toml:"chain" yaml:"chain"`
	Contract  ContractConfig  `toml:"contract" yaml:"contract"`
	API       APIConfig       `toml:"api" yaml:"api"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	Security  SecurityConfig  `toml:"security" yaml:"security"`
	Proxy     ProxyConfig     `toml:"proxy" yaml:"proxy"`
	Metrics   MetricsConfig   `toml:"metrics" yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int    `toml:"port" yaml:"port"`
	Host         string `toml:"host" yaml:"host"`
	ReadTimeout  int    `toml:"read_timeout" yaml:"read_timeout"`   // seconds
	WriteTimeout int    `toml:"write_timeout" yaml:"write_timeout"` // seconds
	IdleTimeout  int    `toml:"idle_timeout" yaml:"idle_timeout"`   // seconds
}

// ChainConfig holds the JSON-RPC endpoint settings
type ChainConfig struct {
	RPCURL      string `toml:"rpc_url" yaml:"rpc_url"`
	DialTimeout int    `toml:"dial_timeout" yaml:"dial_timeout"` // seconds
	CallTimeout int    `toml:"call_timeout" yaml:"call_timeout"` // seconds, 0 = none
}

// ContractConfig identifies the contract being proxied
type ContractConfig struct {
	Address string `toml:"address" yaml:"address"`
	ABIPath string `toml:"abi_path" yaml:"abi_path"`
}

// APIConfig holds response behaviour settings
type APIConfig struct {
	// StrictStatus reports malformed addresses as 400 instead of 500.
	StrictStatus bool `toml:"strict_status" yaml:"strict_status"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json", "text" or "pretty"
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool `toml:"enabled" yaml:"enabled"`
	RequestsPerMin int  `toml:"requests_per_min" yaml:"requests_per_min"`
	BurstSize      int  `toml:"burst_size" yaml:"burst_size"`
	CleanupMinutes int  `toml:"cleanup_minutes" yaml:"cleanup_minutes"`
}

// SecurityConfig holds security filter settings
type SecurityConfig struct {
	FilterEnabled bool `toml:"filter_enabled" yaml:"filter_enabled"`
	MaxQueryBytes int  `toml:"max_query_bytes" yaml:"max_query_bytes"`
}

// ProxyConfig holds trusted proxy settings for X-Forwarded-For handling
type ProxyConfig struct {
	TrustProxy     bool     `toml:"trust_proxy" yaml:"trust_proxy"`
	TrustedProxies []string `toml:"trusted_proxies" yaml:"trusted_proxies"` // CIDR notation
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Host    string `toml:"host" yaml:"host"`
	Port    int    `toml:"port" yaml:"port"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
		},
		Chain: ChainConfig{
			RPCURL:      "https://rpc.primordial.bdagscan.com",
			DialTimeout: 10,
		},
		Contract: ContractConfig{
			Address: "0x47d4060b25c2bcf5b73c77aa6f6d3b27db46fe2e",
			ABIPath: "contract_abi.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 300,
			BurstSize:      50,
			CleanupMinutes: 10,
		},
		Security: SecurityConfig{
			FilterEnabled: true,
			MaxQueryBytes: 2048,
		},
		Proxy: ProxyConfig{
			TrustedProxies: []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 9090,
		},
	}
}

// Load builds the configuration from defaults, the optional config file and
// the environment, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes a TOML or YAML file over the current values. Keys absent
// from the file keep their current value.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.ReadTimeout = getEnvInt("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvInt("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvInt("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)

	c.Chain.RPCURL = getEnv("RPC_URL", c.Chain.RPCURL)
	c.Chain.DialTimeout = getEnvInt("RPC_DIAL_TIMEOUT", c.Chain.DialTimeout)
	c.Chain.CallTimeout = getEnvInt("RPC_CALL_TIMEOUT", c.Chain.CallTimeout)

	c.Contract.Address = getEnv("CONTRACT_ADDRESS", c.Contract.Address)
	c.Contract.ABIPath = getEnv("CONTRACT_ABI_PATH", c.Contract.ABIPath)

	c.API.StrictStatus = getEnvBool("API_STRICT_STATUS", c.API.StrictStatus)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	c.RateLimit.Enabled = getEnvBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerMin = getEnvInt("RATE_LIMIT_RPM", c.RateLimit.RequestsPerMin)
	c.RateLimit.BurstSize = getEnvInt("RATE_LIMIT_BURST", c.RateLimit.BurstSize)
	c.RateLimit.CleanupMinutes = getEnvInt("RATE_LIMIT_CLEANUP_MINUTES", c.RateLimit.CleanupMinutes)

	c.Security.FilterEnabled = getEnvBool("SECURITY_FILTER_ENABLED", c.Security.FilterEnabled)
	c.Security.MaxQueryBytes = getEnvInt("SECURITY_MAX_QUERY_BYTES", c.Security.MaxQueryBytes)

	c.Proxy.TrustProxy = getEnvBool("TRUST_PROXY", c.Proxy.TrustProxy)
	c.Proxy.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", c.Proxy.TrustedProxies)

	c.Metrics.Enabled = getEnvBool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Host = getEnv("METRICS_HOST", c.Metrics.Host)
	c.Metrics.Port = getEnvInt("METRICS_PORT", c.Metrics.Port)
}

// Validate reports settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.Chain.RPCURL == "" {
		errs = append(errs, errors.New("chain rpc url is required"))
	}
	if c.Contract.Address == "" {
		errs = append(errs, errors.New("contract address is required"))
	}
	if c.Contract.ABIPath == "" {
		errs = append(errs, errors.New("contract abi path is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		errs = append(errs, fmt.Errorf("metrics port %d out of range", c.Metrics.Port))
	}
	if c.Chain.DialTimeout < 0 || c.Chain.CallTimeout < 0 {
		errs = append(errs, errors.New("rpc timeouts must not be negative"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text", "pretty":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// DialTimeoutDuration returns the dial timeout as a duration
func (c *ChainConfig) DialTimeoutDuration() time.Duration {
	return time.Duration(c.DialTimeout) * time.Second
}

// CallTimeoutDuration returns the per-call timeout as a duration
func (c *ChainConfig) CallTimeoutDuration() time.Duration {
	return time.Duration(c.CallTimeout) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
