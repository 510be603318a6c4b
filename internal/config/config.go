package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// MySQL holds every relational table
	Database DatabaseConfig `json:"database"`

	// MongoDB GridFS holds listing images
	MongoDB MongoDBConfig `json:"mongodb"`

	Auth AuthConfig `json:"auth"`

	Realtime RealtimeConfig `json:"realtime"`

	Notification NotificationConfig `json:"notification"`

	Logging LoggingConfig `json:"logging"`

	// Client settings are only read by thriftctl
	Client ClientConfig `json:"client"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	MediaPort    string `json:"media_port"`
	MediaBaseURL string `json:"media_base_url"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	Environment  string `json:"environment"` // development, staging, production
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type MongoDBConfig struct {
	Host           string        `json:"host"`
	Port           string        `json:"port"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	Database       string        `json:"database"`
	ImageBucket    string        `json:"image_bucket"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	Enabled        bool          `json:"enabled"`
}

type AuthConfig struct {
	JWTSecret string        `json:"-"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// RealtimeConfig tunes the websocket chat channel
type RealtimeConfig struct {
	SendBufferSize int           `json:"send_buffer_size"`
	MaxMessageSize int64         `json:"max_message_size"`
	PongWait       time.Duration `json:"pong_wait"`
	WriteWait      time.Duration `json:"write_wait"`
}

// NotificationConfig contains notification system configuration
type NotificationConfig struct {
	Workers           int  `json:"workers"`             // Number of worker goroutines
	ChannelBufferSize int  `json:"channel_buffer_size"` // Channel buffer size
	Enabled           bool `json:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // json, text
	OutputPath string `json:"output_path"` // stdout, stderr, or file path
}

type ClientConfig struct {
	APIURL          string        `json:"api_url"`
	GeocoderURL     string        `json:"geocoder_url"`
	GeocodeInterval time.Duration `json:"geocode_interval"`
	TrackInterval   time.Duration `json:"track_interval"`
	AckTimeout      time.Duration `json:"ack_timeout"`
	SessionPath     string        `json:"session_path"`
	SessionRedis    string        `json:"session_redis"`
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using system env variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "3000"),
			MediaPort:    getEnv("MEDIA_SERVER_PORT", "8080"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			Environment:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("MYSQL_HOST", "localhost"),
			Port:         getEnv("MYSQL_PORT", "3306"),
			Username:     getEnv("MYSQL_USERNAME", "thrift"),
			Password:     getEnv("MYSQL_PASSWORD", "thrift123"),
			DatabaseName: getEnv("MYSQL_DATABASE", "thriftstore"),
			MaxOpenConns: getEnvAsInt("MYSQL_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("MYSQL_MAX_IDLE_CONNS", 5),
		},
		MongoDB: MongoDBConfig{
			Host:           getEnv("MONGO_HOST", "localhost"),
			Port:           getEnv("MONGO_PORT", "27017"),
			Username:       getEnv("MONGO_USERNAME", ""),
			Password:       getEnv("MONGO_PASSWORD", ""),
			Database:       getEnv("MONGO_DATABASE", "thriftstore"),
			ImageBucket:    getEnv("MONGO_IMAGE_BUCKET", "listing_images"),
			ConnectTimeout: getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
			Enabled:        getEnvAsBool("MONGO_ENABLED", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-me"),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Realtime: RealtimeConfig{
			SendBufferSize: getEnvAsInt("WS_SEND_BUFFER", 256),
			MaxMessageSize: int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 4096)),
			PongWait:       getEnvAsDuration("WS_PONG_WAIT", 60*time.Second),
			WriteWait:      getEnvAsDuration("WS_WRITE_WAIT", 10*time.Second),
		},
		Notification: NotificationConfig{
			Workers:           getEnvAsInt("NOTIF_WORKERS", 5),
			ChannelBufferSize: getEnvAsInt("NOTIF_BUFFER", 1000),
			Enabled:           getEnvAsBool("NOTIF_ENABLED", true),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "text"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Client: ClientConfig{
			APIURL:          getEnv("API_URL", "http://localhost:3000"),
			GeocoderURL:     getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			GeocodeInterval: getEnvAsDuration("GEOCODE_INTERVAL", time.Second),
			TrackInterval:   getEnvAsDuration("TRACK_INTERVAL", 10*time.Second),
			AckTimeout:      getEnvAsDuration("ACK_TIMEOUT", 5*time.Second),
			SessionPath:     getEnv("SESSION_PATH", defaultSessionPath()),
			SessionRedis:    getEnv("SESSION_REDIS_ADDR", ""),
		},
	}

	cfg.Server.MediaBaseURL = getEnv("MEDIA_BASE_URL",
		fmt.Sprintf("http://localhost:%s/media/", cfg.Server.MediaPort))

	return cfg
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username == "" || cfg.MongoDB.Password == "" {
		return fmt.Sprintf("mongodb://%s:%s/%s",
			cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
		cfg.MongoDB.Username,
		cfg.MongoDB.Password,
		cfg.MongoDB.Host,
		cfg.MongoDB.Port,
		cfg.MongoDB.Database,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".thriftctl-session.json"
	}
	return home + "/.thriftctl/session.json"
}
