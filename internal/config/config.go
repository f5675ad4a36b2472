package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-yaml/yaml"
)

type Config struct {
	NodeInfo NodeInfo `yaml:"nodeInfo"`
	Server   Server   `yaml:"server"`
}

// Duration accepts human-readable values ("24h", "1500ms") from both the yaml
// file and environment overrides. Bare integers are taken as nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := unmarshal(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type NodeInfo struct {
	FQDN         string `yaml:"fqdn" env:"REGISTRY_FQDN"`
	Registration string `yaml:"registration" env:"REGISTRY_REGISTRATION"` // open, close
}

type Server struct {
	Listen          string        `yaml:"listen" env:"REGISTRY_LISTEN"`
	PostgresDsn     string        `yaml:"postgresDsn" env:"REGISTRY_POSTGRES_DSN"`
	RedisAddr       string        `yaml:"redisAddr" env:"REGISTRY_REDIS_ADDR"`
	RedisDB         int           `yaml:"redisDB" env:"REGISTRY_REDIS_DB"`
	MemcachedAddr   string        `yaml:"memcachedAddr" env:"REGISTRY_MEMCACHED_ADDR"`
	EnableTrace     bool          `yaml:"enableTrace" env:"REGISTRY_ENABLE_TRACE"`
	TraceEndpoint   string        `yaml:"traceEndpoint" env:"REGISTRY_TRACE_ENDPOINT"`
	JWTSecret       string        `yaml:"jwtSecret" env:"REGISTRY_JWT_SECRET"`
	TokenTTL        Duration      `yaml:"tokenTTL" env:"REGISTRY_TOKEN_TTL"`
	StoreTimeout    Duration      `yaml:"storeTimeout" env:"REGISTRY_STORE_TIMEOUT"`
}

// Load reads the yaml config file and then applies environment overrides.
func Load(path string) (Config, error) {

	var config Config

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&config.NodeInfo); err != nil {
		return Config{}, err
	}
	if err := env.Parse(&config.Server); err != nil {
		return Config{}, err
	}

	config.applyDefaults()

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	if c.NodeInfo.Registration == "" {
		c.NodeInfo.Registration = "open"
	}
	if c.Server.TokenTTL == 0 {
		c.Server.TokenTTL = Duration(24 * time.Hour)
	}
	if c.Server.StoreTimeout == 0 {
		c.Server.StoreTimeout = Duration(3 * time.Second)
	}
}
