package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Mail     MailConfig     `mapstructure:"mail"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// DatabaseConfig selects the store. Driver is "mongo" or "memory"; the memory
// driver keeps everything in process and is meant for local development.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
	// Transactions requires a replica set (a single node one is enough). The
	// mongo driver refuses to run without it: activation, reorders and
	// cascading deletes span several documents.
	Transactions bool `mapstructure:"transactions"`
}

// Validate rejects driver settings the repositories cannot honor.
func (c DatabaseConfig) Validate() error {
	switch c.Driver {
	case "memory":
		return nil
	case "mongo":
		if !c.Transactions {
			return fmt.Errorf("database.transactions must be enabled for the mongo driver")
		}
		return nil
	default:
		return fmt.Errorf("unknown database.driver %q (want mongo or memory)", c.Driver)
	}
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// MailConfig configures outgoing mail. Provider "resend" sends through the
// Resend API; anything else only logs the message.
type MailConfig struct {
	Provider     string `mapstructure:"provider"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
	// AppBaseURL prefixes the accept/reject and password setup links.
	AppBaseURL string `mapstructure:"app_base_url"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Nested keys map to env vars, e.g. database.uri -> DATABASE_URI
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "coach_app")
	v.SetDefault("database.transactions", true)
	// Every key needs a default for AutomaticEnv to reach it through Unmarshal.
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.resend_api_key", "")
	v.SetDefault("mail.from", "Coach <no-reply@example.com>")
	v.SetDefault("mail.app_base_url", "http://localhost:8080")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "coach.events")
	v.SetDefault("log.level", "info")

	err = v.ReadInConfig()
	// A missing file is fine: defaults and env vars still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	// Viper parses duration strings ("60m", "1h") straight into time.Duration.
	if err = v.Unmarshal(&config); err != nil {
		return
	}
	if err = config.Database.Validate(); err != nil {
		return config, fmt.Errorf("config: %w", err)
	}
	return config, nil
}
