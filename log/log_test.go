package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nopWriter{})
		IndentationLevel = 0
		Verbose = false
	})
	return &buf
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestLevelPrefixes(t *testing.T) {
	buf := captureOutput(t)

	Log("plain %d\n", 1)
	Warning("careful\n")
	Success("done\n")
	Error("broken\n")

	assert.Equal(t,
		"plain 1\n"+
			"\033[33mWarning: \033[0mcareful\n"+
			"\033[32mSuccess: \033[0mdone\n"+
			"\033[31mError: \033[0mbroken\n",
		buf.String())
	assert.True(t, ErrorOccured())
}

func TestDebugRequiresVerbose(t *testing.T) {
	buf := captureOutput(t)

	Debug("hidden\n")
	assert.Empty(t, buf.String())

	Verbose = true
	Debug("shown\n")
	assert.Equal(t, "\033[36mDebug: \033[0mshown\n", buf.String())
}

func TestIndentationAndFields(t *testing.T) {
	buf := captureOutput(t)

	IndentationLevel = 2
	WithField("tc_id", "TC_001").WithField("artifact", "test").Log("generated\n")

	assert.Equal(t, "    generated [artifact=test tc_id=TC_001]\n", buf.String())
}

func TestWithFields(t *testing.T) {
	buf := captureOutput(t)

	IndentationLevel = 0
	WithFields(map[string]interface{}{"provider": "openai", "model": "gpt-4o"}).Warning("truncated\n")

	assert.Equal(t, "\033[33mWarning: \033[0mtruncated [model=gpt-4o provider=openai]\n", buf.String())
}

func TestFatalExits(t *testing.T) {
	buf := captureOutput(t)

	code := 0
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	Fatal("cannot continue\n")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "A fatal error occured")
}
