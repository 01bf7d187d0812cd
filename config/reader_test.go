package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	conf, err := Parse([]byte("backend:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, conf.Backend.Port)
	assert.Equal(t, 5432, conf.Databases.Master.Port)
	assert.Equal(t, "amqp", conf.Push.Driver)
	assert.Equal(t, 8, conf.Push.Parallelism)
	assert.Equal(t, "first", conf.Plans.AttendancePolicy)
	assert.Equal(t, 5, conf.Redis.Workers)
}

func TestParseEnvOverride(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("PUSH_DRIVER", "ws")
	t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5673/")

	conf, err := Parse([]byte("db:\n  master:\n    host: localhost\n"))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", conf.Databases.Master.Host)
	assert.Equal(t, 6380, conf.Redis.Port)
	assert.Equal(t, "ws", conf.Push.Driver)
	assert.Equal(t, "amqp://u:p@mq:5673/", conf.RabbitMQ.URL)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	body := "plans:\n  attendance_policy: all\ndb:\n  replicas:\n    - host: replica1\n      port: 5433\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	require.NoError(t, LoadConfig(path))
	require.NotNil(t, AppConfig)
	assert.Equal(t, "all", AppConfig.Plans.AttendancePolicy)
	require.Len(t, AppConfig.Databases.Replicas, 1)
	assert.Equal(t, "replica1", AppConfig.Databases.Replicas[0].Host)
}

func TestLoadConfigMissingFile(t *testing.T) {
	err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
