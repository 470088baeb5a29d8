package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormLogger "gorm.io/gorm/logger"
)

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("COMPETENCY_TEST_KEY", "")
	assert.Equal(t, "fallback", GetEnv("COMPETENCY_TEST_KEY", "fallback"))

	t.Setenv("COMPETENCY_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("COMPETENCY_TEST_KEY", "fallback"))
	assert.Equal(t, "", GetEnv("COMPETENCY_TEST_MISSING"))
}

func TestParseGormLogLevel(t *testing.T) {
	assert.Equal(t, gormLogger.Silent, ParseGormLogLevel("silent"))
	assert.Equal(t, gormLogger.Error, ParseGormLogLevel(" ERROR "))
	assert.Equal(t, gormLogger.Info, ParseGormLogLevel("info"))
	assert.Equal(t, gormLogger.Warn, ParseGormLogLevel("anything"))
}

func TestLoadEnvReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	err := os.WriteFile(path, []byte("JWT_SECRET=s3cret\nDB_DRIVER=SQLite\nRECALC_CRON=\"0 2 * * *\"\n"), 0o600)
	require.NoError(t, err)

	// godotenv never overrides variables that are already set
	for _, k := range []string{"RAILWAY_ENVIRONMENT", "JWT_SECRET", "DB_DRIVER", "RECALC_CRON", "PORT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	LoadEnv(path)

	assert.Equal(t, "s3cret", JWTSecret)
	assert.Equal(t, "sqlite", DBDriver)
	assert.Equal(t, "0 2 * * *", RecalcCron)
	assert.Equal(t, "3000", Port)
}
