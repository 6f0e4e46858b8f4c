package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendFile     = "file"
)

type Config struct {
	PostgresAddress  string
	PostgresPort     string
	PostgresDB       string
	PostgresUsername string
	PostgresPassword string
	AutoMigrate      bool

	Backend  string
	DataFile string

	Port        string
	Workers     int
	LogLevel    string
	CORSOrigins []string

	KafkaBrokers []string
	KafkaTopic   string
}

// In all cases the default behavior should be for the docker compose setup
var defaults = map[string]interface{}{
	"postgres.address":     "localhost",
	"postgres.port":        "5433",
	"postgres.db":          "postgres",
	"postgres.username":    "postgres",
	"postgres.password":    "testpassword",
	"ledger.auto_migrate":  true,
	"ledger.backend":       BackendPostgres,
	"ledger.data_file":     "ledger.json",
	"ledger.port":          "9446",
	"ledger.workers":       1,
	"ledger.log_level":     "info",
	"ledger.cors_origins":  "*",
	"ledger.kafka_brokers": "",
	"ledger.kafka_topic":   "ledger.transfers",
}

// ProcessEnvironmentVariables layers the defaults, the optional YAML file named
// by LEDGER_CONFIG_FILE and the POSTGRES_* / LEDGER_* environment variables.
func ProcessEnvironmentVariables() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, err
	}

	if path := os.Getenv("LEDGER_CONFIG_FILE"); len(path) != 0 {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	for _, prefix := range []string{"POSTGRES_", "LEDGER_"} {
		if err := k.Load(env.Provider(prefix, ".", envKey), nil); err != nil {
			return nil, err
		}
	}

	cfg := Config{
		PostgresAddress:  k.String("postgres.address"),
		PostgresPort:     k.String("postgres.port"),
		PostgresDB:       k.String("postgres.db"),
		PostgresUsername: k.String("postgres.username"),
		PostgresPassword: k.String("postgres.password"),
		AutoMigrate:      k.Bool("ledger.auto_migrate"),
		Backend:          strings.ToLower(k.String("ledger.backend")),
		DataFile:         k.String("ledger.data_file"),
		Port:             k.String("ledger.port"),
		Workers:          k.Int("ledger.workers"),
		LogLevel:         k.String("ledger.log_level"),
		CORSOrigins:      stringList(k, "ledger.cors_origins"),
		KafkaBrokers:     stringList(k, "ledger.kafka_brokers"),
		KafkaTopic:       k.String("ledger.kafka_topic"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendPostgres, BackendMemory:
	case BackendFile:
		if len(c.DataFile) == 0 {
			return fmt.Errorf("ledger.data_file is required for the %s backend", BackendFile)
		}
	default:
		return fmt.Errorf("unknown ledger.backend %q", c.Backend)
	}
	if c.Workers < 1 {
		return fmt.Errorf("ledger.workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// envKey maps POSTGRES_ADDRESS to postgres.address and LEDGER_DATA_FILE to
// ledger.data_file. Only the first underscore separates the section.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(s), "_", ".", 1)
}

// stringList accepts either a YAML list or a comma separated string.
func stringList(k *koanf.Koanf, key string) []string {
	var raw []string
	switch v := k.Get(key).(type) {
	case []interface{}:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	case string:
		raw = strings.Split(v, ",")
	}

	out := []string{}
	for _, item := range raw {
		if item = strings.TrimSpace(item); len(item) != 0 {
			out = append(out, item)
		}
	}
	return out
}
