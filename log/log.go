package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
)

// Verbose controls whether debug messages are being printed.
var Verbose bool

// IndentationLevel controls the amount of indentation of log messages.
var IndentationLevel = 0

// Spinner is shown while waiting on long-running remote calls.
var Spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))

var errorOccured atomic.Bool

var exit = os.Exit

const (
	indentField  = "indent"
	successField = "success"
)

var logger = &logrus.Logger{
	Out:       os.Stderr,
	Formatter: &formatter{},
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.DebugLevel,
}

// formatter renders entries the way the CLI always printed them: an indented,
// coloured level prefix followed by the message, with structured fields
// appended in brackets.
type formatter struct{}

func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	indent, _ := entry.Data[indentField].(int)
	b.WriteString(strings.Repeat("  ", indent))

	switch {
	case entry.Data[successField] == true:
		b.WriteString("\033[32mSuccess: \033[0m")
	case entry.Level == logrus.DebugLevel:
		b.WriteString("\033[36mDebug: \033[0m")
	case entry.Level == logrus.WarnLevel:
		b.WriteString("\033[33mWarning: \033[0m")
	case entry.Level <= logrus.ErrorLevel:
		b.WriteString("\033[31mError: \033[0m")
	}

	message := entry.Message
	trailing := ""
	if strings.HasSuffix(message, "\n") {
		message = strings.TrimSuffix(message, "\n")
		trailing = "\n"
	}
	b.WriteString(message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == indentField || k == successField {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, entry.Data[k])
		}
		b.WriteString("]")
	}
	b.WriteString(trailing)
	return b.Bytes(), nil
}

// SetOutput redirects all log output to `w`.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// ErrorOccured reports whether any errors have occured.
func ErrorOccured() bool {
	return errorOccured.Load()
}

// Entry carries structured fields that are attached to every message logged through it.
type Entry struct {
	fields logrus.Fields
}

// WithField returns an Entry carrying a single field.
func WithField(key string, value interface{}) Entry {
	return Entry{logrus.Fields{key: value}}
}

// WithFields returns an Entry carrying `fields`.
func WithFields(fields map[string]interface{}) Entry {
	return Entry{logrus.Fields(fields)}
}

// WithField returns a copy of the entry with an additional field.
func (e Entry) WithField(key string, value interface{}) Entry {
	fields := make(logrus.Fields, len(e.fields)+1)
	for k, v := range e.fields {
		fields[k] = v
	}
	fields[key] = value
	return Entry{fields}
}

func (e Entry) entry() *logrus.Entry {
	return logger.WithFields(e.fields).WithField(indentField, IndentationLevel)
}

// Log prints an indented and formatted message.
func (e Entry) Log(format string, a ...interface{}) {
	e.entry().Infof(format, a...)
}

// Debug prints an indented and formatted debug message if verbose output is selected.
func (e Entry) Debug(format string, a ...interface{}) {
	if Verbose {
		e.entry().Debugf(format, a...)
	}
}

// Success prints an indented and formatted success message.
func (e Entry) Success(format string, a ...interface{}) {
	e.entry().WithField(successField, true).Infof(format, a...)
}

// Warning prints an indented and formatted warning.
func (e Entry) Warning(format string, a ...interface{}) {
	e.entry().Warnf(format, a...)
}

// Error prints an indented and formatted error message.
func (e Entry) Error(format string, a ...interface{}) {
	errorOccured.Store(true)
	e.entry().Errorf(format, a...)
}

// Log prints an indented and formatted message to os.Stderr.
func Log(format string, a ...interface{}) {
	Entry{}.Log(format, a...)
}

// Debug prints an indented and formatted debug message to os.Stderr if verbose output is selected.
func Debug(format string, a ...interface{}) {
	Entry{}.Debug(format, a...)
}

// Success prints an indented and formatted success message to os.Stderr.
func Success(format string, a ...interface{}) {
	Entry{}.Success(format, a...)
}

// Warning prints an indented and formatted warning to os.Stderr.
func Warning(format string, a ...interface{}) {
	Entry{}.Warning(format, a...)
}

// Error prints an indented and formatted error message to os.Stderr.
func Error(format string, a ...interface{}) {
	Entry{}.Error(format, a...)
}

// Fatal prints an indented and formatted error message to os.Stderr and terminates the program.
func Fatal(format string, a ...interface{}) {
	Error(format, a...)
	logger.Out.Write([]byte("\033[31mA fatal error occured. Exiting...\033[0m\n"))
	exit(1)
}

// StartSpinner starts the spinner with `suffix` unless debug output is enabled.
// The spinner stays silent when stderr is not a terminal.
func StartSpinner(suffix string) {
	if Verbose {
		return
	}
	Spinner.Suffix = " " + suffix
	Spinner.Start()
}

// StopSpinner stops the spinner if it is running.
func StopSpinner() {
	Spinner.Stop()
}
