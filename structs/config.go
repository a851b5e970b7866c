package structs

import "time"

type Config struct {
	Server    *ServerConfig
	Cors      *CorsConfig
	Database  *DatabaseConfig
	Cache     *CacheConfig
	RateLimit *RateLimitConfig
	Auth      *AuthConfig
	Storage   *StorageConfig
	Client    *ClientConfig
}

type ServerConfig struct {
	AppName        string        // Productos
	Environment    string        // development, production
	Port           string        // :8082
	ReadTimeout    time.Duration // in seconds
	WriteTimeout   time.Duration // in seconds
	IdleTimeout    time.Duration // in seconds
	MaxHeaderBytes int           // in bytes
	BodyLimit      int64         // in bytes
}

type CorsConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

type DatabaseConfig struct {
	Driver       string // pgdriver, pgx
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxConns     int
	MinConns     int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AutoMigrate  bool
	RetryEnabled bool
}

type CacheConfig struct {
	Address      string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
}

type RateLimitConfig struct {
	Enabled bool
	Backend string // redis, memory
	Limit   int
	Window  time.Duration
}

type AuthConfig struct {
	ServiceTokenSecret string
	ServiceTokenExpiry time.Duration
	RequireToken       bool
}

type StorageConfig struct {
	NatsURL       string
	Bucket        string
	PublicBaseURL string
}

type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	APIToken       string
	Classification string // source, arrival
}
