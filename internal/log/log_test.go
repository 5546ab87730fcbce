package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetWriter(&buf)
	SetMinLevel(LevelDebug)
	t.Cleanup(func() {
		SetWriter(nil)
		SetMinLevel(LevelInfo)
	})
	return &buf
}

// entries decodes one JSON object per logged line.
func entries(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e), line)
		out = append(out, e)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"Debug", LevelDebug},
		{"", LevelInfo},
		{"info", LevelInfo},
		{"WARNING", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		lvl, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, lvl, tt.in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestLog_Fields(t *testing.T) {
	buf := capture(t)

	Info(CatRegistry, "loaded unit", "name", "gram", "orphan")

	got := entries(t, buf.Bytes())
	require.Len(t, got, 1)
	require.Equal(t, "info", got[0]["level"])
	require.Equal(t, "registry", got[0]["category"])
	require.Equal(t, "loaded unit", got[0]["msg"])
	require.Equal(t, "gram", got[0]["name"])
	require.Equal(t, "<missing>", got[0]["orphan"])
	require.Contains(t, got[0], "time")
}

func TestLog_MinLevelFilters(t *testing.T) {
	buf := capture(t)
	SetMinLevel(LevelWarn)

	Debug(CatStore, "hidden")
	Info(CatStore, "hidden")
	Warn(CatStore, "shown")

	got := entries(t, buf.Bytes())
	require.Len(t, got, 1)
	require.Equal(t, "shown", got[0]["msg"])
	require.Equal(t, "warn", got[0]["level"])
}

func TestLog_Disabled(t *testing.T) {
	buf := capture(t)
	SetEnabled(false)

	Error(CatCLI, "nope")

	require.Empty(t, buf.String())
}

func TestErrorErr(t *testing.T) {
	buf := capture(t)

	ErrorErr(CatCatalog, "parse failed", errors.New("bad yaml"), "file", "units.yaml")
	ErrorErr(CatCatalog, "nil error", nil)

	got := entries(t, buf.Bytes())
	require.Len(t, got, 2)
	require.Equal(t, "bad yaml", got[0]["error"])
	require.Equal(t, "units.yaml", got[0]["file"])
	require.Equal(t, "catalog", got[0]["category"])
	require.Equal(t, "<nil>", got[1]["error"])
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nutrition.log")

	cleanup, err := Init(path)
	require.NoError(t, err)
	Warn(CatStore, "to file")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := entries(t, data)
	require.Len(t, got, 1)
	require.Equal(t, "to file", got[0]["msg"])
	require.Equal(t, "store", got[0]["category"])

	// After cleanup logging is off again.
	Warn(CatStore, "after cleanup")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "after cleanup")
}

func TestInit_StaleCleanupKeepsNewerOutput(t *testing.T) {
	first, err := Init(filepath.Join(t.TempDir(), "first.log"))
	require.NoError(t, err)
	buf := capture(t)

	first()
	Info(CatCLI, "still here")

	require.Len(t, entries(t, buf.Bytes()), 1)
}
