package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLogFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestZapLogger_GetLogs(t *testing.T) {
	path := writeLogFile(t,
		`{"level":"INFO","timestamp":"2026-01-01T00:00:00Z","message":"first","module":"session"}`,
		`not json`,
		`{"level":"ERROR","timestamp":"2026-01-01T00:00:01Z","message":"second","module":"stream"}`,
		`{"level":"INFO","timestamp":"2026-01-01T00:00:02Z","message":"third","module":"session"}`,
	)
	l := &ZapLogger{filePath: path}

	all, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Message, "newest first")
	assert.NotEmpty(t, all[0].Id)

	errorsOnly, err := l.GetLogs("error", 10, 0)
	require.NoError(t, err)
	require.Len(t, errorsOnly, 1)
	assert.Equal(t, "second", errorsOnly[0].Message)

	page, err := l.GetLogs("", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Message)

	empty, err := l.GetLogs("", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestZapLogger_GetLogsSkipsOversizedLines(t *testing.T) {
	huge := `{"level":"INFO","message":"` + strings.Repeat("x", maxLineSize+1) + `"}`
	path := writeLogFile(t,
		`{"level":"INFO","timestamp":"2026-01-01T00:00:00Z","message":"before"}`,
		huge,
		`{"level":"WARN","timestamp":"2026-01-01T00:00:01Z","message":"after"}`,
	)
	l := &ZapLogger{filePath: path}

	entries, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "after", entries[0].Message)
	assert.Equal(t, "before", entries[1].Message)
}

func TestZapLogger_GetLogsReadsUnterminatedLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(`{"level":"INFO","message":"only"}`), 0o644))
	l := &ZapLogger{filePath: path}

	entries, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "only", entries[0].Message)
}

func TestZapLogger_GetLogById(t *testing.T) {
	path := writeLogFile(t, `{"level":"INFO","message":"only"}`)
	l := &ZapLogger{filePath: path}

	logs, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	found, err := l.GetLogById(logs[0].Id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "only", found.Message)

	missing, err := l.GetLogById("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestZapLogger_MissingFile(t *testing.T) {
	l := &ZapLogger{filePath: filepath.Join(t.TempDir(), "absent.log")}
	logs, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
