package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Address)
	require.Equal(t, "mongo", cfg.Database.Driver)
	require.Equal(t, "coach_app", cfg.Database.Name)
	require.True(t, cfg.Database.Transactions)
	require.Equal(t, time.Hour, cfg.JWT.Expiration)
	require.Equal(t, "log", cfg.Mail.Provider)
	require.Equal(t, "coach.events", cfg.Kafka.Topic)
	require.False(t, cfg.Kafka.Enabled)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
database:
  driver: memory
  transactions: true
jwt:
  secret: from-file
  expiration: 30m
mail:
  provider: resend
kafka:
  enabled: true
  brokers: [kafka-1:9092, kafka-2:9092]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("S3_BUCKET_NAME", "media")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.Address)
	require.Equal(t, "memory", cfg.Database.Driver)
	require.True(t, cfg.Database.Transactions)
	require.Equal(t, "from-env", cfg.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	require.Equal(t, "media", cfg.S3.BucketName)
	require.Equal(t, "resend", cfg.Mail.Provider)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [\n"), 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
}

func TestLoadConfigRequiresTransactionsForMongo(t *testing.T) {
	dir := t.TempDir()
	yaml := "database:\n  driver: mongo\n  transactions: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	_, err := LoadConfig(dir)
	require.ErrorContains(t, err, "database.transactions")

	t.Setenv("DATABASE_DRIVER", "memory")
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.False(t, cfg.Database.Transactions)
}

func TestDatabaseConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     DatabaseConfig
		wantErr bool
	}{
		{"mongo with transactions", DatabaseConfig{Driver: "mongo", Transactions: true}, false},
		{"mongo without transactions", DatabaseConfig{Driver: "mongo"}, true},
		{"memory", DatabaseConfig{Driver: "memory"}, false},
		{"unknown driver", DatabaseConfig{Driver: "postgres", Transactions: true}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
