package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	require.NotNil(t, cfg)
	assert.Equal(t, 24*time.Hour, cfg.RefreshRotateThreshold)
	assert.Equal(t, "tasks", cfg.RabbitMQTaskQueue)
	assert.Len(t, cfg.UserEncryptionKey, 32)
	assert.False(t, cfg.AccessBlacklistCheck)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EMAIL_VERIFICATION_TIMEOUT", "600")
	t.Setenv("ACCESS_TOKEN_LIFETIME", "5m")
	t.Setenv("ACCESS_BLACKLIST_CHECK", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 10*time.Minute, cfg.EmailVerificationTimeout)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenLifetime)
	assert.True(t, cfg.AccessBlacklistCheck)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
}

func TestGetSeconds_AcceptsDurationString(t *testing.T) {
	t.Setenv("EMAIL_VERIFICATION_TIMEOUT", "45m")
	assert.Equal(t, 45*time.Minute, getseconds("EMAIL_VERIFICATION_TIMEOUT", time.Minute))
}

func TestSplitCSV(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " https://a.example , ,https://b.example"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())

	cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode = "u", "p", "h", "5432", "d", "disable"
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}

func TestPostgresDSN_EscapesCredentials(t *testing.T) {
	cfg := &Config{DBUser: "app", DBPassword: "p@ss:w/rd", DBHost: "db", DBPort: "5432", DBName: "accounts", DBSSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/accounts?sslmode=require", cfg.PostgresDSN())
}

func TestLoad_MalformedBoolKeepsDefault(t *testing.T) {
	t.Setenv("MAIL_SEND_ENABLED", "maybe")
	t.Setenv("APP_ENV", "production")
	cfg := Load()
	assert.True(t, cfg.MailSendEnabled)
	assert.False(t, cfg.IsDevelopment())
}
