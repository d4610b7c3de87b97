package config

import (
	"encoding/json"
	"os"
	"sync"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ServerPort string `json:"server_port"`

	// Database settings
	PostgresHost     string `json:"postgres_host"`
	PostgresPort     string `json:"postgres_port"`
	PostgresUser     string `json:"postgres_user"`
	PostgresPassword string `json:"postgres_password"`
	PostgresDB       string `json:"postgres_db"`

	// Redis settings (remote tier of the result cache, C4)
	RedisHost     string `json:"redis_host"`
	RedisPort     string `json:"redis_port"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// Cache settings
	InProcessCacheCapacity int `json:"in_process_cache_capacity"` // max viewers held by the LRU tier
	TimelineCacheTTLMinutes int `json:"timeline_cache_ttl_minutes"`

	// Pipeline defaults
	DefaultPageSize int `json:"default_page_size"`
	RequestDeadlineSeconds int `json:"request_deadline_seconds"`

	// Fan-out settings
	FanoutQueueCapacity int `json:"fanout_queue_capacity"`
	FanoutShardSize     int `json:"fanout_shard_size"` // shard batches above this follower count

	// Streaming settings
	StreamSessionQueueCapacity int `json:"stream_session_queue_capacity"`
	StreamMessagesPerSecond    int `json:"stream_messages_per_second"`
	StreamHeartbeatMillis      int `json:"stream_heartbeat_millis"`

	// Admission settings
	DefaultRPM   int `json:"default_rpm"`
	DefaultBurst int `json:"default_burst"`

	// SharedAuthToken, when non-empty, is compared against x-auth-token on
	// every request (spec.md §6); empty disables the check.
	SharedAuthToken string `json:"-"`

	// Benchmark settings
	BenchmarkRequests   int `json:"benchmark_requests"`
	BenchmarkConcurrent int `json:"benchmark_concurrent"`
}

var (
	instance *Config
	once     sync.Once
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ServerPort:                 "8080",
		PostgresHost:               "localhost",
		PostgresPort:               "5432",
		PostgresUser:               "timeline",
		PostgresPassword:           "timeline",
		PostgresDB:                 "timeline",
		RedisHost:                  "localhost",
		RedisPort:                  "6379",
		RedisPassword:              "",
		RedisDB:                    0,
		InProcessCacheCapacity:     5000,
		TimelineCacheTTLMinutes:    60,
		DefaultPageSize:            20,
		RequestDeadlineSeconds:     30,
		FanoutQueueCapacity:        10000,
		FanoutShardSize:            100000,
		StreamSessionQueueCapacity: 256,
		StreamMessagesPerSecond:    5,
		StreamHeartbeatMillis:      500,
		DefaultRPM:                 600,
		DefaultBurst:               20,
		BenchmarkRequests:          1000,
		BenchmarkConcurrent:        50,
	}
}

// Get returns the singleton config instance.
func Get() *Config {
	once.Do(func() {
		instance = Default()
		instance.loadFromEnv()
	})
	return instance
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.ServerPort = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		c.PostgresPort = v
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.RedisPort = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("SHARED_AUTH_TOKEN"); v != "" {
		c.SharedAuthToken = v
	}
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=disable"
}

// RedisAddr returns the Redis address.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// SaveToFile saves the current config to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFromFile loads config from a JSON file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, c)
}

// Update updates specific config values by key, mirroring the CLI's
// `config set` surface.
func (c *Config) Update(key string, value interface{}) {
	switch key {
	case "in_process_cache_capacity", "in-process-cache-capacity":
		if v, ok := value.(int); ok {
			c.InProcessCacheCapacity = v
		}
	case "timeline_cache_ttl_minutes", "timeline-cache-ttl-minutes":
		if v, ok := value.(int); ok {
			c.TimelineCacheTTLMinutes = v
		}
	case "default_page_size", "default-page-size":
		if v, ok := value.(int); ok {
			c.DefaultPageSize = v
		}
	case "fanout_queue_capacity", "fanout-queue-capacity":
		if v, ok := value.(int); ok {
			c.FanoutQueueCapacity = v
		}
	}
}
