package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestStorageFlags(t *testing.T) {
	flags := storageFlags()

	findString := func(name string) *cli.StringFlag {
		for _, f := range flags {
			if sf, ok := f.(*cli.StringFlag); ok && sf.Name == name {
				return sf
			}
		}
		return nil
	}
	findInt := func(name string) *cli.IntFlag {
		for _, f := range flags {
			if if_, ok := f.(*cli.IntFlag); ok && if_.Name == name {
				return if_
			}
		}
		return nil
	}

	t.Run("db has a default path", func(t *testing.T) {
		dbFlag := findString("db")
		require.NotNil(t, dbFlag)
		assert.Equal(t, "./audiomind_db", dbFlag.Value)
		assert.Contains(t, dbFlag.Aliases, "d")
	})

	t.Run("backend defaults to badger", func(t *testing.T) {
		backendFlag := findString("backend")
		require.NotNil(t, backendFlag)
		assert.Equal(t, "badger", backendFlag.Value)
	})

	t.Run("dimension has the embedding default", func(t *testing.T) {
		dimFlag := findInt("dimension")
		require.NotNil(t, dimFlag)
		assert.Equal(t, 1024, dimFlag.Value)
	})

	t.Run("embedding-provider defaults to voyage", func(t *testing.T) {
		providerFlag := findString("embedding-provider")
		require.NotNil(t, providerFlag)
		assert.Equal(t, "voyage", providerFlag.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	run := func(level string) error {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String("log-level", level, "")
		return setupLogger(cli.NewContext(cli.NewApp(), set, nil))
	}

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
			assert.NoError(t, run(level), level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := run("verbose")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("sets the default logger level", func(t *testing.T) {
		require.NoError(t, run("warn"))
		assert.False(t, slog.Default().Enabled(t.Context(), slog.LevelInfo))
		assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelWarn))

		// Restore for other tests
		require.NoError(t, run("info"))
	})
}

func TestContentTypes(t *testing.T) {
	assert.Equal(t, "audio/mpeg", contentTypes[".mp3"])
	assert.Equal(t, "audio/wav", contentTypes[".wav"])
	assert.Empty(t, contentTypes[".txt"])
}

func TestReadArtifact(t *testing.T) {
	t.Run("decodes a segments artifact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "segments.json")
		payload := `{"segments":[{"text":"hello","start":0,"end":2.5,"vector":[0.1,0.2]}]}`
		require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

		var artifact segmentsArtifact
		require.NoError(t, readArtifact(path, &artifact))
		require.Len(t, artifact.Segments, 1)
		assert.Equal(t, "hello", artifact.Segments[0].Text)
		assert.Equal(t, 2.5, artifact.Segments[0].End)
		assert.Equal(t, []float32{0.1, 0.2}, artifact.Segments[0].Vector)
	})

	t.Run("missing file", func(t *testing.T) {
		var artifact segmentsArtifact
		assert.Error(t, readArtifact(filepath.Join(t.TempDir(), "absent.json"), &artifact))
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

		var artifact segmentsArtifact
		err := readArtifact(path, &artifact)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode")
	})
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "0:00", formatTimestamp(0))
	assert.Equal(t, "0:59", formatTimestamp(59.9))
	assert.Equal(t, "1:05", formatTimestamp(65))
	assert.Equal(t, "12:34", formatTimestamp(754))
}
