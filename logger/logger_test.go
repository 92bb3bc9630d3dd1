package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}

	return entries
}

func TestSlogLogger(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWriter(&buf, InfoLevel, false)

	l.Debug("hidden")
	l.Info("sent", "id", 7, "s", 1)
	l.With("remote", "equip").Warn("linktest failed")

	l.SetLevel(DebugLevel)
	require.Equal(DebugLevel, l.Level())
	l.Debug("visible")

	entries := decodeLines(t, &buf)
	require.Len(entries, 3)
	require.Equal("sent", entries[0]["msg"])
	require.EqualValues(7, entries[0]["id"])
	require.Contains(entries[0], "ts")
	require.Equal("equip", entries[1]["remote"])
	require.Equal("WARN", entries[1]["level"])
	require.Equal("visible", entries[2]["msg"])
}

func TestZapLogger(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	l := NewZap(ZapOptions{Output: &buf, Level: WarnLevel})

	l.Info("hidden")
	l.Warn("T3 timeout", "id", 12)
	l.With("session", 1).Error("rejected")
	require.Equal(WarnLevel, l.Level())

	l.SetLevel(DebugLevel)
	l.Debug("visible")
	require.NoError(l.Sync())

	entries := decodeLines(t, &buf)
	require.Len(entries, 3)
	require.Equal("T3 timeout", entries[0]["msg"])
	require.EqualValues(12, entries[0]["id"])
	require.EqualValues(1, entries[1]["session"])
	require.Equal("debug", entries[2]["level"])
}

func TestZapLoggerFile(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "secs.log")
	l := NewZap(ZapOptions{LogFile: path, MaxSize: 1, Level: InfoLevel})
	l.Info("selected", "remote", "127.0.0.1")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(err)
	require.Contains(string(data), `"msg":"selected"`)
}

func TestDefaultLogger(t *testing.T) {
	require := require.New(t)

	prev := GetLogger()
	defer SetDefault(prev)

	m := NewMockLogger()
	m.On("Info", "hello", mock.Anything).Return()
	m.On("SetLevel", DebugLevel).Return()
	SetDefault(m)

	Info("hello", "k", "v")
	SetLevel(DebugLevel)

	m.AssertExpectations(t)
	require.Same(m, GetLogger())
}

func TestMockLogger_Permissive(t *testing.T) {
	m := NewMockLogger().Permissive(WarnLevel)

	l := m.With("session", 9527)
	l.Debug("ignored")
	l.Warn("reply timeout", "id", 7)

	require.Same(t, m, l)
	require.Equal(t, WarnLevel, m.Level())
	m.AssertCalled(t, "Warn", "reply timeout", []any{"id", 7})
	m.AssertNotCalled(t, "Error", mock.Anything, mock.Anything)
}
