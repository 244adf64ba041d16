package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	base "github.com/theyashgrover/videoplatform-backend/libs/config"
)

type MongoConfig struct {
	URI      string
	Database string
}

type CloudinaryConfig struct {
	URL    string
	Folder string
}

type RateLimitRedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type RateLimitConfig struct {
	LoginLimit int
	Window     time.Duration
	Redis      RateLimitRedisConfig
}

type KafkaConfig struct {
	Brokers    []string
	WatchTopic string
	GroupID    string
}

type Config struct {
	App                base.AppConfig
	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration
	BcryptCost         int
	Mongo              MongoConfig
	Cloudinary         CloudinaryConfig
	RateLimit          RateLimitConfig
	Kafka              KafkaConfig
	UploadTempDir      string
}

func Load() (*Config, error) {
	appCfg, err := base.Load(os.Getenv("VTB_CONFIG"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App:                *appCfg,
		AccessTokenSecret:  envString("VTB_ACCESS_TOKEN_SECRET", ""),
		AccessTokenTTL:     envDuration("VTB_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenSecret: envString("VTB_REFRESH_TOKEN_SECRET", ""),
		RefreshTokenTTL:    envDuration("VTB_REFRESH_TOKEN_TTL", 10*24*time.Hour),
		BcryptCost:         envInt("VTB_BCRYPT_COST", 10),
		Mongo: MongoConfig{
			URI:      envString("MONGODB_URI", "mongodb://localhost:27017"),
			Database: envString("MONGODB_DATABASE", "videoplatform"),
		},
		Cloudinary: CloudinaryConfig{
			URL:    envString("CLOUDINARY_URL", ""),
			Folder: envString("CLOUDINARY_FOLDER", "videoplatform"),
		},
		RateLimit: RateLimitConfig{
			LoginLimit: envInt("VTB_LOGIN_RATE_LIMIT", 10),
			Window:     envDuration("VTB_LOGIN_RATE_WINDOW", 1*time.Minute),
			Redis: RateLimitRedisConfig{
				Addr:     envString("VTB_RATE_LIMIT_REDIS_ADDR", ""),
				Password: envString("VTB_RATE_LIMIT_REDIS_PASSWORD", ""),
				DB:       envInt("VTB_RATE_LIMIT_REDIS_DB", 0),
				Prefix:   envString("VTB_RATE_LIMIT_REDIS_PREFIX", "vtb:auth:rl:"),
			},
		},
		Kafka: KafkaConfig{
			Brokers:    envList("VTB_KAFKA_BROKERS"),
			WatchTopic: envString("VTB_KAFKA_WATCH_TOPIC", "video.watch.events"),
			GroupID:    envString("VTB_KAFKA_GROUP_ID", "videoplatform-history"),
		},
		UploadTempDir: envString("VTB_UPLOAD_TEMP_DIR", os.TempDir()),
	}

	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("VTB_ACCESS_TOKEN_SECRET must be set")
	}
	if cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("VTB_REFRESH_TOKEN_SECRET must be set")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
