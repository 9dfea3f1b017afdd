// internal/config/config.go
package config

import (
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	App      AppConfig
	Storage  StorageConfig
	Records  RecordStoreConfig
	Database DatabaseConfig
	Cache    CacheConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// AppConfig holds the local paths that stand in for the cloud services.
type AppConfig struct {
	DataDir    string
	BucketDir  string
	DBFile     string
	LogFile    string
	SamplesDir string
}

type StorageConfig struct {
	Backend   string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type RecordStoreConfig struct {
	Backend string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

const (
	StorageBackendLocal = "local"
	StorageBackendMinio = "minio"

	RecordStoreJSONFile = "jsonfile"
	RecordStorePostgres = "postgres"
)

var (
	once     sync.Once
	instance *Config
)

// Load reads the process configuration once: .env, then environment, then defaults.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.AutomaticEnv()
		instance = FromViper(viper.GetViper())
	})

	return instance
}

// FromViper builds a Config from v after registering the defaults on it.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)

	dataDir := v.GetString("APP_DATA_DIR")
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		App: AppConfig{
			DataDir:    dataDir,
			BucketDir:  orDefault(v.GetString("APP_BUCKET_DIR"), filepath.Join(dataDir, "s3", "uploads")),
			DBFile:     orDefault(v.GetString("APP_DB_FILE"), filepath.Join(dataDir, "db", "dynamodb_mock.json")),
			LogFile:    v.GetString("APP_LOG_FILE"),
			SamplesDir: v.GetString("APP_SAMPLES_DIR"),
		},
		Storage: StorageConfig{
			Backend:   v.GetString("STORAGE_BACKEND"),
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		Records: RecordStoreConfig{
			Backend: v.GetString("RECORD_STORE"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTLSeconds:    v.GetInt("CACHE_TTL_SECONDS"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("APP_DATA_DIR", "./data")
	v.SetDefault("APP_LOG_FILE", "./logs/lambda_output.log")
	v.SetDefault("APP_SAMPLES_DIR", "./sample_files")

	v.SetDefault("STORAGE_BACKEND", StorageBackendLocal)
	v.SetDefault("S3_ENDPOINT", "localhost:9000")
	v.SetDefault("S3_BUCKET", "uploads")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", false)

	v.SetDefault("RECORD_STORE", RecordStoreJSONFile)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "serverless_sim")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 60)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
