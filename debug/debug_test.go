package debug

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesCategory(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(Disable)

	Log("session", "state %s", "Listening")
	assert.Contains(t, buf.String(), "category=session")
	assert.Contains(t, buf.String(), `msg="state Listening"`)
}

func TestLogDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Disable()

	Log("session", "dropped")
	assert.Empty(t, buf.String())
}

func TestErrorAndWarnIncludeFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(Disable)

	Error("speech", errors.New("not-allowed"), Fields{"engine": "cmd"})
	Warn("midi", "no devices", Fields{"ports": 0})

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "engine=cmd")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "ports=0")
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(Disable)

	for i := 0; i < 6; i++ {
		LogEvery(3, "led", "tick")
	}
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("tick (every 3")))
}

func TestEnableCreatesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, Enable())
	t.Cleanup(Disable)

	path, err := Path()
	require.NoError(t, err)
	Log("debug", "hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Equal(t, "rifflynx", filepath.Base(filepath.Dir(path)))
}

func TestInitSentryWithoutDSN(t *testing.T) {
	flush, err := InitSentry("", "test", "dev")
	require.NoError(t, err)
	flush()
}
