package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Admin    AdminConfig
	Backup   BackupConfig
	Remote   RemoteConfig
	Images   ImageConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Path string
}

type AdminConfig struct {
	Password     string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

type BackupConfig struct {
	// Path is the local snapshot file, the durable copy of the store.
	Path       string
	SyncOnBoot bool
}

const (
	RemoteGitHub = "github"
	RemoteS3     = "s3"
	RemoteNone   = "none"
)

// RemoteConfig selects where snapshots are pushed after every mutation.
type RemoteConfig struct {
	Provider      string // github, s3 or none
	Token         string
	RepoURL       string
	Branch        string
	Path          string
	APIBaseURL    string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	S3            S3Config
}

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Key             string
	ForcePathStyle  bool
}

type ImageConfig struct {
	MaxDimension  int
	JPEGQuality   int
	MaxUploadSize int64
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, after merging an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "gallery.db"),
		},
		Admin: AdminConfig{
			Password:     getEnv("ADMIN_PASSWORD", "admin123"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("JWT_SECRET", "change-me-in-production"),
			TokenTTL:     getEnvAsDuration("JWT_EXPIRATION", 12*time.Hour),
		},
		Backup: BackupConfig{
			Path:       getEnv("BACKUP_PATH", "data/db_backup.json"),
			SyncOnBoot: getEnvAsBool("BACKUP_SYNC_ON_BOOT", true),
		},
		Remote: RemoteConfig{
			Provider:      strings.ToLower(getEnv("REMOTE_PROVIDER", RemoteGitHub)),
			Token:         getEnv("GITHUB_TOKEN", ""),
			RepoURL:       getEnv("REPO_URL", ""),
			Branch:        getEnv("REPO_BRANCH", "main"),
			Path:          getEnv("REMOTE_PATH", "data/db_backup.json"),
			APIBaseURL:    getEnv("GITHUB_API_URL", "https://api.github.com"),
			Timeout:       getEnvAsDuration("REMOTE_TIMEOUT", 30*time.Second),
			MaxRetries:    getEnvAsInt("REMOTE_MAX_RETRIES", 3),
			RetryInterval: getEnvAsDuration("REMOTE_RETRY_INTERVAL", 500*time.Millisecond),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "us-east-1"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				BucketName:      getEnv("AWS_BUCKET_NAME", ""),
				Endpoint:        getEnv("AWS_ENDPOINT", ""),
				Key:             getEnv("AWS_BACKUP_KEY", "data/db_backup.json"),
				ForcePathStyle:  getEnvAsBool("AWS_FORCE_PATH_STYLE", false),
			},
		},
		Images: ImageConfig{
			MaxDimension:  getEnvAsInt("IMAGE_MAX_DIMENSION", 800),
			JPEGQuality:   getEnvAsInt("IMAGE_JPEG_QUALITY", 85),
			MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_SIZE", 10485760)),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks values that would make the server unusable. Missing remote
// credentials are not an error here: they are reported on every push instead.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Backup.Path == "" {
		return fmt.Errorf("BACKUP_PATH is required")
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	if c.Admin.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Remote.Provider {
	case RemoteGitHub, RemoteS3, RemoteNone:
	default:
		return fmt.Errorf("unsupported REMOTE_PROVIDER: %s", c.Remote.Provider)
	}
	if c.Remote.MaxRetries < 0 {
		return fmt.Errorf("REMOTE_MAX_RETRIES must not be negative")
	}
	if c.Images.MaxDimension <= 0 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION must be positive")
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return fmt.Errorf("IMAGE_JPEG_QUALITY must be between 1 and 100")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
