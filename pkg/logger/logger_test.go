package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsoleText(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Format: "text", Output: "console"}, &buf)
	require.NoError(t, err)

	l.Info("hidden")
	l.WithField("node", 2).Warn("Missing deviceid.txt for node 2")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Missing deviceid.txt for node 2")
	assert.Contains(t, out, "node=2")
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "loud", Output: "console"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: "console"}, &buf)
	require.NoError(t, err)

	l.WithField("node", 1).Info("Saved Node 1: a|<d>")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Saved Node 1: a|<d>", entry["msg"])
	assert.Equal(t, float64(1), entry["node"])
}

func TestNewFileAndConsole(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "nodecollector.log")
	l, err := New(Config{Level: "info", Output: "both", FilePath: path, MaxSize: 1}, &buf)
	require.NoError(t, err)

	l.Info("collection finished")

	assert.Contains(t, buf.String(), "collection finished")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "collection finished")
}

func TestNewRejectsBadOutput(t *testing.T) {
	_, err := New(Config{Output: "syslog"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(Config{Output: "file"}, &bytes.Buffer{})
	assert.Error(t, err, "file output needs a path")
}

func TestInitReplacesGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "debug", Output: "console"}, &buf))

	WithField("node", 7).Debugf("Run report saved to %s", "runs.db")
	Info("Node information retrieval completed.")

	assert.Contains(t, buf.String(), "Run report saved to runs.db")
	assert.Contains(t, buf.String(), "Node information retrieval completed.")
	assert.Equal(t, logrus.DebugLevel, GetLogger().GetLevel())
}
