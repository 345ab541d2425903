package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNodes(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	for i, files := range []map[string]string{
		{"nodeid.json": `{"address":"addr1"}`, "deviceid.txt": "dev1\n"},
		{"nodeid.json": `{"address":"addr2"}`},
	} {
		dir := filepath.Join(base, "node-"+strconv.Itoa(i+1))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for name, content := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		}
	}
	return base
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootPromptsForNodeCount(t *testing.T) {
	dir := isolate(t)
	base := setupNodes(t)

	out, err := execute(t, "2\n", "--base-dir", base)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, nodeCountPrompt))
	assert.Contains(t, out, "Saved Node 1: addr1|dev1")
	assert.Contains(t, out, "Missing deviceid.txt for node 2")
	assert.Contains(t, out, completedMessage)

	listing, err := os.ReadFile(filepath.Join(dir, "nodesList.txt"))
	require.NoError(t, err)
	assert.Equal(t, "addr1|dev1\n", string(listing))
}

func TestRootNodesFlagSkipsPrompt(t *testing.T) {
	dir := isolate(t)
	base := setupNodes(t)
	output := filepath.Join(dir, "lists", "custom.txt")

	out, err := execute(t, "", "--nodes", "1", "--base-dir", base, "--output", output)
	require.NoError(t, err)

	assert.NotContains(t, out, nodeCountPrompt)
	listing, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "addr1|dev1\n", string(listing))
}

func TestRootRejectsBadNodeCount(t *testing.T) {
	isolate(t)

	_, err := execute(t, "many\n", "--base-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an integer")

	_, err = execute(t, "2.5\n", "--base-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an integer")
}

func TestRootNegativeCountWritesEmptyListing(t *testing.T) {
	dir := isolate(t)
	base := setupNodes(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodesList.txt"), []byte("stale|entry\n"), 0o644))

	out, err := execute(t, "-2\n", "--base-dir", base)
	require.NoError(t, err)
	assert.Contains(t, out, completedMessage)
	assert.NotContains(t, out, "Saved Node")

	_, err = execute(t, "", "--nodes=-1", "--base-dir", base)
	require.NoError(t, err)

	listing, err := os.ReadFile(filepath.Join(dir, "nodesList.txt"))
	require.NoError(t, err)
	assert.Equal(t, "", string(listing))
}

func TestRootEnvConfiguresBaseDir(t *testing.T) {
	dir := isolate(t)
	t.Setenv("NODE_COLLECTOR_SOURCE_BASE_DIR", setupNodes(t))

	_, err := execute(t, "", "--nodes", "2")
	require.NoError(t, err)

	listing, err := os.ReadFile(filepath.Join(dir, "nodesList.txt"))
	require.NoError(t, err)
	assert.Equal(t, "addr1|dev1\n", string(listing))
}

func TestReportCommand(t *testing.T) {
	dir := isolate(t)
	base := setupNodes(t)
	t.Setenv("NODE_COLLECTOR_REPORT_ENABLED", "true")
	t.Setenv("NODE_COLLECTOR_REPORT_SQLITE_PATH", filepath.Join(dir, "data", "runs.db"))

	_, err := execute(t, "", "--nodes", "2", "--base-dir", base)
	require.NoError(t, err)

	out, err := execute(t, "", "report")
	require.NoError(t, err)

	assert.Contains(t, out, "2 requested, 1 saved")
	assert.Contains(t, out, "addr1|dev1")
	assert.Contains(t, out, "missing_file")
}

func TestReportCommandDisabled(t *testing.T) {
	isolate(t)

	_, err := execute(t, "", "report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run reports are disabled")
}

func TestParseNodeCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "3", want: 3},
		{in: "  12 \r\n", want: 12},
		{in: "0", want: 0},
		{in: "-2", want: -2},
		{in: "2.5", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseNodeCount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPromptNodeCountWithoutTrailingNewline(t *testing.T) {
	var out bytes.Buffer
	n, err := promptNodeCount(strings.NewReader("4"), &out)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, nodeCountPrompt, out.String())

	_, err = promptNodeCount(strings.NewReader(""), &out)
	assert.Error(t, err)
}
