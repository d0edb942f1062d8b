package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration, loaded from YAML (or
// JSON as a fallback) with ${VAR} / ${VAR:-default} environment
// substitution applied before unmarshalling.
type Config struct {
	MySQL     MySQLConfig     `json:"mysql" yaml:"mysql"`
	ClickHouse ClickHouseConfig `json:"clickhouse" yaml:"clickhouse"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Etcd      EtcdConfig      `json:"etcd" yaml:"etcd"`
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
	MSS       MSSConfig       `json:"mss" yaml:"mss"`
	Schedule  ScheduleConfig  `json:"schedule" yaml:"schedule"`
	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	Vault     VaultConfig     `json:"vault" yaml:"vault"`
	Idempotency IdempotencyConfig `json:"idempotency" yaml:"idempotency"`
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	LogFormat string          `json:"log_format" yaml:"log_format"` // "console" or "json"
}

type MySQLConfig struct {
	DSN         string `json:"dsn" yaml:"dsn"`
	MaxOpen     int    `json:"max_open" yaml:"max_open"`
	MaxIdle     int    `json:"max_idle" yaml:"max_idle"`
	AcquireTimeoutSeconds int `json:"acquire_timeout_seconds" yaml:"acquire_timeout_seconds"`
}

type ClickHouseConfig struct {
	Hosts    []string `json:"hosts" yaml:"hosts"`
	Ports    []int    `json:"ports" yaml:"ports"`
	User     string   `json:"user" yaml:"user"`
	Password string   `json:"password" yaml:"password"`
	Database string   `json:"database" yaml:"database"`
}

type RedisConfig struct {
	Address  string `json:"address" yaml:"address"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type EtcdConfig struct {
	Endpoints []string      `json:"endpoints" yaml:"endpoints"`
	Prefix    string        `json:"prefix" yaml:"prefix"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
}

type GatewayConfig struct {
	BaseURL      string `json:"base_url" yaml:"base_url"`
	SourceAppID  uint32 `json:"source_app_id" yaml:"source_app_id"`
	TargetAppID  uint32 `json:"target_app_id" yaml:"target_app_id"`
	Mode         int32  `json:"mode" yaml:"mode"`
	Sync         bool   `json:"sync" yaml:"sync"`
}

type MSSConfig struct {
	AppID  string `json:"app_id" yaml:"app_id"`
	AppKey string `json:"app_key" yaml:"app_key"`
	AppURL string `json:"app_url" yaml:"app_url"`
}

type ScheduleConfig struct {
	BinlogSyncCron string `json:"binlog_sync_cron" yaml:"binlog_sync_cron"`
	PushCron       string `json:"push_cron" yaml:"push_cron"`
}

type HTTPConfig struct {
	Port int `json:"port" yaml:"port"`
}

type VaultConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Address string `json:"address" yaml:"address"`
	Token   string `json:"token" yaml:"token"`
	Mount   string `json:"mount" yaml:"mount"`
}

type IdempotencyConfig struct {
	DSN   string `json:"dsn" yaml:"dsn"`
	Table string `json:"table" yaml:"table"`
}

// LoadConfig reads path, substitutes environment variables, and decodes it
// as YAML (falling back to JSON if YAML decoding fails).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	content := SubstituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		if err := json.Unmarshal([]byte(content), &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file (tried YAML and JSON): %w", err)
		}
	}

	return &cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var envRegex = regexp.MustCompile(`\${(\w+)(?::-([^}]*))?}`)

// SubstituteEnvVars replaces ${VAR} and ${VAR:-default} occurrences in input.
func SubstituteEnvVars(input string) string {
	return envRegex.ReplaceAllStringFunc(input, func(m string) string {
		matches := envRegex.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		envVar := matches[1]
		if val, ok := os.LookupEnv(envVar); ok {
			return val
		}
		if len(matches) > 2 && strings.Contains(m, ":-") {
			return matches[2]
		}
		return m
	})
}
