package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/config"
)

type workerTestConfig struct {
	Concurrency int           `env:"TEST_WORKER_CONCURRENCY" envDefault:"4"`
	PollDelay   time.Duration `env:"TEST_WORKER_POLL_DELAY" envDefault:"1s"`
	Queues      []string      `env:"TEST_WORKER_QUEUES" envSeparator:","`
}

type requiredTestConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET,required"`
}

type cachedTestConfig struct {
	Value string `env:"TEST_CACHED_VALUE"`
}

func TestLoad(t *testing.T) {
	t.Run("parses values from environment", func(t *testing.T) {
		t.Setenv("TEST_WORKER_CONCURRENCY", "8")
		t.Setenv("TEST_WORKER_POLL_DELAY", "250ms")
		t.Setenv("TEST_WORKER_QUEUES", "high,normal")

		var cfg workerTestConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, 8, cfg.Concurrency)
		assert.Equal(t, 250*time.Millisecond, cfg.PollDelay)
		assert.Equal(t, []string{"high", "normal"}, cfg.Queues)
	})

	t.Run("missing required variable", func(t *testing.T) {
		os.Unsetenv("TEST_REQUIRED_SECRET")

		var cfg requiredTestConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[workerTestConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("caches the first parse per type", func(t *testing.T) {
		t.Setenv("TEST_CACHED_VALUE", "first")

		var first cachedTestConfig
		require.NoError(t, config.Load(&first))
		assert.Equal(t, "first", first.Value)

		// Environment changes after the first load are not observed
		t.Setenv("TEST_CACHED_VALUE", "second")

		var second cachedTestConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on missing required variable", func(t *testing.T) {
		os.Unsetenv("TEST_REQUIRED_SECRET")

		var cfg requiredTestConfig
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("loads variables from a custom file", func(t *testing.T) {
		os.Unsetenv("TEST_ENVFILE_VALUE")

		dir := t.TempDir()
		path := dir + "/.env.test"
		require.NoError(t, os.WriteFile(path, []byte("TEST_ENVFILE_VALUE=from_file\n"), 0o644))

		require.NoError(t, config.LoadEnv(path))
		assert.Equal(t, "from_file", os.Getenv("TEST_ENVFILE_VALUE"))
	})

	t.Run("existing environment wins over file values", func(t *testing.T) {
		t.Setenv("TEST_ENVFILE_PRIORITY", "from_env")

		dir := t.TempDir()
		path := dir + "/.env.test"
		require.NoError(t, os.WriteFile(path, []byte("TEST_ENVFILE_PRIORITY=from_file\n"), 0o644))

		require.NoError(t, config.LoadEnv(path))
		assert.Equal(t, "from_env", os.Getenv("TEST_ENVFILE_PRIORITY"))
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.LoadEnv("testdata/does_not_exist.env")
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	})
}

func TestMustLoadEnv(t *testing.T) {
	assert.Panics(t, func() { config.MustLoadEnv("testdata/does_not_exist.env") })
}
