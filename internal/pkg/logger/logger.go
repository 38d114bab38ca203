// Package logger provides leveled, structured JSON logging. Values that
// look like customer email addresses are redacted before they reach the
// log stream, since unified customer records are keyed by email.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger emits structured JSON log entries with optional PII redaction.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	level     Level
	redactPII bool
}

var std = &Logger{out: os.Stderr, level: INFO, redactPII: true}

// SetLevel sets the minimum level for the package-level logger.
func SetLevel(l Level) { std.level = l }

// SetRedactPII toggles email redaction on the package-level logger.
func SetRedactPII(on bool) { std.redactPII = on }

// SetOutput redirects the package-level logger, used by tests.
func SetOutput(w io.Writer) { std.out = w }

// Debug emits a DEBUG entry with alternating key/value fields.
func Debug(msg string, kv ...interface{}) { std.emit(DEBUG, msg, kv...) }

// Info emits an INFO entry with alternating key/value fields.
func Info(msg string, kv ...interface{}) { std.emit(INFO, msg, kv...) }

// Warn emits a WARN entry with alternating key/value fields.
func Warn(msg string, kv ...interface{}) { std.emit(WARN, msg, kv...) }

// Error emits an ERROR entry with alternating key/value fields.
func Error(msg string, kv ...interface{}) { std.emit(ERROR, msg, kv...) }

func (l *Logger) emit(level Level, msg string, kv ...interface{}) {
	if level < l.level {
		return
	}

	entry := map[string]interface{}{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"level": level.String(),
		"msg":   msg,
	}

	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprintf("%v", kv[i])
		val := fmt.Sprintf("%v", kv[i+1])
		if l.redactPII {
			val = redact(key, val)
		}
		entry[key] = val
	}

	line, _ := json.Marshal(entry)
	l.mu.Lock()
	fmt.Fprintln(l.out, string(line))
	l.mu.Unlock()
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func redact(key, val string) string {
	lower := strings.ToLower(key)
	if strings.Contains(lower, "email") || strings.Contains(lower, "customer") || strings.Contains(lower, "profile") {
		return RedactEmail(val)
	}
	// Catch emails embedded in free-form fields too
	return emailPattern.ReplaceAllStringFunc(val, RedactEmail)
}
