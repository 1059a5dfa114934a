package config

import "strings"

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// StoreConfig controls the Redis key layout shared by the HTTP and worker roles.
// Every role pointed at the same Redis must use the same prefix.
type StoreConfig struct {
	// KeyPrefix is prepended to every key, e.g. "launchlens:". Empty keeps the bare names.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:""`
}

// Sanitize trims whitespace from the prefix.
func (s *StoreConfig) Sanitize() {
	s.KeyPrefix = strings.TrimSpace(s.KeyPrefix)
}
