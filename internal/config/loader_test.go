package config_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shirlenelss/thomas-cup-kafka/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PostgresDSN, convey.ShouldEqual, "")
				convey.So(cfg.BusPartitions, convey.ShouldEqual, 8)
				convey.So(cfg.BusBufferSize, convey.ShouldEqual, 4096)
				convey.So(cfg.SnapshotMaxEntries, convey.ShouldEqual, 50_000)
				convey.So(cfg.PublishRetryAttempts, convey.ShouldEqual, 3)
				convey.So(cfg.ConsumerMaxAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.WSEnabled, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("THOMASCUP_ADDR", ":9090")
			_ = os.Setenv("THOMASCUP_BUS_PARTITIONS", "16")
			_ = os.Setenv("THOMASCUP_SNAPSHOT_MAX_ENTRIES", "1000")
			_ = os.Setenv("THOMASCUP_SNAPSHOT_TTL_SECONDS", "3600")
			_ = os.Setenv("THOMASCUP_POSTGRES_DSN", "postgres://localhost/scores")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BusPartitions, convey.ShouldEqual, 16)
				convey.So(cfg.SnapshotMaxEntries, convey.ShouldEqual, 1000)
				convey.So(cfg.SnapshotTTL(), convey.ShouldEqual, time.Hour)
				convey.So(cfg.PostgresDSN, convey.ShouldEqual, "postgres://localhost/scores")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":7070"
bus_partitions: 4
bus_buffer_size: 1024
consumer_max_attempts: 10
ws_enabled: false
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("THOMASCUP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.BusPartitions, convey.ShouldEqual, 4)
				convey.So(cfg.BusBufferSize, convey.ShouldEqual, 1024)
				convey.So(cfg.ConsumerMaxAttempts, convey.ShouldEqual, 10)
				convey.So(cfg.WSEnabled, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":7070"
bus_partitions: 4
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("THOMASCUP_CONFIG", tmpFile)
			_ = os.Setenv("THOMASCUP_ADDR", ":9090")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")      // Overridden by env
				convey.So(cfg.BusPartitions, convey.ShouldEqual, 4)   // From file
				convey.So(cfg.BusBufferSize, convey.ShouldEqual, 4096) // From defaults
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("THOMASCUP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("THOMASCUP_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("THOMASCUP_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-positive partitions", func() {
			_ = os.Setenv("THOMASCUP_BUS_PARTITIONS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "bus_partitions")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("THOMASCUP_BUS_PARTITIONS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"THOMASCUP_CONFIG",
		"THOMASCUP_ADDR",
		"THOMASCUP_POSTGRES_DSN",
		"THOMASCUP_BUS_PARTITIONS",
		"THOMASCUP_BUS_BUFFER_SIZE",
		"THOMASCUP_SNAPSHOT_MAX_ENTRIES",
		"THOMASCUP_SNAPSHOT_TTL_SECONDS",
		"THOMASCUP_CONSUMER_MAX_ATTEMPTS",
		"THOMASCUP_WS_ENABLED",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "thomascup-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
