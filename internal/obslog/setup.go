// Package obslog configures the shared logrus logger the same way the
// teacher's internal/logging package configures its base logger: a
// package-level *logrus.Logger, a custom formatter, and file rotation via
// lumberjack when a log-file path is configured. It additionally installs
// the two event buffers (internal/events) as logrus hooks during Setup, so
// every log call populates them without a separate instrumentation step.
package obslog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/oneclient/core-go/internal/events"
)

var (
	setupOnce  sync.Once
	writerMu   sync.Mutex
	fileWriter *lumberjack.Logger
)

// Formatter renders one log entry as
// "[2026-01-02 15:04:05] [info ] [file.go:42] message target=value" (the
// caller part only when caller reporting is on).
// Mirrors the teacher's LogFormatter: timestamp, level, caller, message,
// then a fixed, ordered subset of fields.
type Formatter struct{}

var fieldOrder = []string{"target", "usecase", "scheme", "handle", "kind", "error"}

func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	var buf *bytes.Buffer
	if entry.Buffer != nil {
		buf = entry.Buffer
	} else {
		buf = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := strings.TrimRight(entry.Message, "\r\n")

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}
	levelStr := fmt.Sprintf("%-5s", level)

	var fieldsStr string
	if len(entry.Data) > 0 {
		var fields []string
		for _, k := range fieldOrder {
			if v, ok := entry.Data[k]; ok {
				fields = append(fields, fmt.Sprintf("%s=%v", k, v))
			}
		}
		if len(fields) > 0 {
			fieldsStr = " " + strings.Join(fields, " ")
		}
	}

	if entry.Caller != nil {
		fmt.Fprintf(buf, "[%s] [%s] [%s:%d] %s%s\n", timestamp, levelStr, filepath.Base(entry.Caller.File), entry.Caller.Line, message, fieldsStr)
	} else {
		fmt.Fprintf(buf, "[%s] [%s] %s%s\n", timestamp, levelStr, message, fieldsStr)
	}
	return buf.Bytes(), nil
}

// Setup configures the shared logrus instance once per process: formatter,
// caller reporting, and the two event buffers as hooks. Safe to call more
// than once.
func Setup() {
	setupOnce.Do(func() {
		log.SetOutput(os.Stdout)
		log.SetReportCaller(true)
		log.SetFormatter(&Formatter{})
		log.AddHook(events.Metrics)
		log.AddHook(events.DeveloperDump)
	})
}

// ConfigureFileOutput switches the log destination to a rotating file at
// path, or back to stdout when path is empty. Matches the teacher's
// ConfigureLogOutput toggle, minus its directory-size cleaner (the core has
// no analogous total-log-budget concern; the host, not the guest, owns log
// retention policy).
func ConfigureFileOutput(path string) error {
	Setup()

	writerMu.Lock()
	defer writerMu.Unlock()

	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
	}

	if path == "" {
		log.SetOutput(os.Stdout)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("obslog: create log directory: %w", err)
	}
	fileWriter = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     0,
		Compress:   false,
	}
	log.SetOutput(fileWriter)
	return nil
}
