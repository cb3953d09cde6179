package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/anthanhphan/gosdk/conflux"
	"github.com/anthanhphan/gosdk/logger"
)

// Config holds the balancer configuration.
type Config struct {
	Server      ServerConfig      `json:"server" yaml:"server"`
	Balancer    BalancerConfig    `json:"balancer" yaml:"balancer"`
	HealthCheck HealthCheckConfig `json:"health_check" yaml:"health_check"`
	Discovery   DiscoveryConfig   `json:"discovery" yaml:"discovery"`
	Redis       RedisConfig       `json:"redis" yaml:"redis"`
	Backends    []BackendConfig   `json:"backends" yaml:"backends"`
	Logger      logger.Config     `json:"logger" yaml:"logger"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

type BalancerConfig struct {
	NodeID       int64  `json:"node_id" yaml:"node_id"`
	VirtualNodes int    `json:"virtual_nodes" yaml:"virtual_nodes"`
	HashFunction string `json:"hash_function" yaml:"hash_function"`
	// MaxCandidates caps the failover scan per request; 0 tries every
	// registered server.
	MaxCandidates           int `json:"max_candidates" yaml:"max_candidates"`
	ProxyTimeoutMS          int `json:"proxy_timeout_ms" yaml:"proxy_timeout_ms"`
	BreakerFailureThreshold int `json:"breaker_failure_threshold" yaml:"breaker_failure_threshold"`
	BreakerCooldownMS       int `json:"breaker_cooldown_ms" yaml:"breaker_cooldown_ms"`
}

type HealthCheckConfig struct {
	IntervalMS int    `json:"interval_ms" yaml:"interval_ms"`
	TimeoutMS  int    `json:"timeout_ms" yaml:"timeout_ms"`
	Retries    int    `json:"retries" yaml:"retries"`
	Workers    int    `json:"workers" yaml:"workers"`
	ProbeType  string `json:"probe_type" yaml:"probe_type"` // "http" or "tcp"
	ProbePath  string `json:"probe_path" yaml:"probe_path"`
}

type DiscoveryConfig struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	NodeName string   `json:"node_name" yaml:"node_name"`
	BindAddr string   `json:"bind_addr" yaml:"bind_addr"`
	BindPort int      `json:"bind_port" yaml:"bind_port"`
	Seeds    []string `json:"seeds" yaml:"seeds"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type BackendConfig struct {
	Name   string `json:"name" yaml:"name"`
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port" yaml:"port"`
	Weight int    `json:"weight" yaml:"weight"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Balancer: BalancerConfig{
			NodeID:                  1,
			VirtualNodes:            150,
			HashFunction:            "murmur3",
			MaxCandidates:           0,
			ProxyTimeoutMS:          15000,
			BreakerFailureThreshold: 3,
			BreakerCooldownMS:       10000,
		},
		HealthCheck: HealthCheckConfig{
			IntervalMS: 10000,
			TimeoutMS:  2000,
			Retries:    3,
			Workers:    8,
			ProbeType:  "http",
			ProbePath:  "/health",
		},
		Discovery: DiscoveryConfig{
			Enabled:  false,
			BindAddr: "0.0.0.0",
			BindPort: 7946,
		},
		Logger: logger.Config{
			LogLevel:    logger.LevelInfo,
			LogEncoding: logger.EncodingJSON,
		},
	}
}

// Load loads configuration from file.
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		env := os.Getenv("ENV")
		if env == "" {
			env = "local"
		}
		configPath = filepath.Join("internal", "balancer", "config", env+".yaml")
	}

	cfg := DefaultConfig()

	parsedCfg, err := conflux.ParseConfig(configPath, cfg)
	if err != nil {
		log.Printf("Config file not found or failed to parse, path: %s, error: %v", configPath, err)
		if path != "" {
			return nil, err
		}
		return cfg, nil
	}

	return parsedCfg, nil
}

// MustLoad loads configuration or exits on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}
