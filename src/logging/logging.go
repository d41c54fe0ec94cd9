// Package logging provides the server's access, application, and audit
// loggers. Files rotate by size via lumberjack so the process never has to
// reopen handles on a signal.
package logging

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager owns all log streams for the process.
type Manager struct {
	logDir string
	access *AccessLogger
	server *ServerLogger
	audit  *AuditLogger
}

// NewManager creates a logging manager rooted at logDir. An empty logDir
// disables file output; the server logger still writes to stdout.
func NewManager(logDir string) *Manager {
	if logDir != "" {
		os.MkdirAll(logDir, 0755)
	}

	m := &Manager{logDir: logDir}
	m.access = NewAccessLogger(logPath(logDir, "access.log"))
	m.server = NewServerLogger(logPath(logDir, "server.log"))
	m.audit = NewAuditLogger(logPath(logDir, "audit.log"))
	return m
}

func logPath(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// Access returns the access logger.
func (m *Manager) Access() *AccessLogger {
	return m.access
}

// Server returns the application logger.
func (m *Manager) Server() *ServerLogger {
	return m.server
}

// Audit returns the audit logger.
func (m *Manager) Audit() *AuditLogger {
	return m.audit
}

// Close flushes and closes all log streams.
func (m *Manager) Close() error {
	var errs []error
	if err := m.access.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.server.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.audit.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing loggers: %v", errs)
	}
	return nil
}

// newRotatingWriter returns a size-rotated file writer, or nil when path is
// empty.
func newRotatingWriter(path string) io.WriteCloser {
	if path == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

// ============================================================
// Access Logger
// ============================================================

// AccessLogger writes one line per HTTP request.
type AccessLogger struct {
	mu     sync.Mutex
	out    io.WriteCloser
	format string // "combined" or "json"
}

// AccessEntry holds the fields recorded for a request.
type AccessEntry struct {
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Query     string    `json:"query,omitempty"`
	Protocol  string    `json:"protocol"`
	Status    int       `json:"status"`
	Size      int64     `json:"size"`
	Referer   string    `json:"referer,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	RequestID string    `json:"request_id,omitempty"`
}

// NewAccessLogger creates an access logger writing Combined Log Format.
func NewAccessLogger(path string) *AccessLogger {
	return &AccessLogger{
		out:    newRotatingWriter(path),
		format: "combined",
	}
}

// SetFormat selects "combined" or "json" output.
func (l *AccessLogger) SetFormat(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
}

// Log writes one entry.
func (l *AccessLogger) Log(entry AccessEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return
	}

	var line string
	if l.format == "json" {
		data, _ := json.Marshal(entry)
		line = string(data)
	} else {
		line = fmt.Sprintf("%s - - [%s] \"%s %s %s\" %d %d \"%s\" \"%s\"",
			entry.IP,
			entry.Timestamp.Format("02/Jan/2006:15:04:05 -0700"),
			entry.Method,
			entry.Path,
			entry.Protocol,
			entry.Status,
			entry.Size,
			orDash(entry.Referer),
			entry.UserAgent,
		)
	}
	l.out.Write([]byte(line + "\n"))
}

// LogRequest records a completed HTTP request.
func (l *AccessLogger) LogRequest(r *http.Request, status int, size int64, latency time.Duration, requestID string) {
	l.Log(AccessEntry{
		Timestamp: time.Now(),
		IP:        ClientIP(r),
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		Protocol:  fmt.Sprintf("HTTP/%d.%d", r.ProtoMajor, r.ProtoMinor),
		Status:    status,
		Size:      size,
		Referer:   r.Header.Get("Referer"),
		UserAgent: r.Header.Get("User-Agent"),
		LatencyMS: latency.Milliseconds(),
		RequestID: requestID,
	})
}

// Close closes the underlying file.
func (l *AccessLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	return l.out.Close()
}

// ClientIP extracts the client address, preferring proxy headers and
// stripping any port.
func ClientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		ip = real
	}
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		if !strings.Contains(ip[idx:], "]") { // keep bracketed IPv6 intact
			ip = ip[:idx]
		}
	}
	return ip
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ============================================================
// Server Logger
// ============================================================

// LogLevel represents log severity.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// ServerLogger logs application events.
type ServerLogger struct {
	mu     sync.Mutex
	out    io.WriteCloser
	level  LogLevel
	format string // "text" or "json"
	stdout bool
}

// ServerEntry is one application log record.
type ServerEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// NewServerLogger creates an application logger at info level, mirrored to
// stdout.
func NewServerLogger(path string) *ServerLogger {
	return &ServerLogger{
		out:    newRotatingWriter(path),
		level:  LevelInfo,
		format: "text",
		stdout: true,
	}
}

// SetLevel sets the minimum level that gets written.
func (l *ServerLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetFormat selects "text" or "json" output.
func (l *ServerLogger) SetFormat(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
}

// SetStdout enables or disables the stdout mirror.
func (l *ServerLogger) SetStdout(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = enabled
}

func (l *ServerLogger) log(level LogLevel, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	entry := ServerEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
		Fields:    fields,
	}

	var line string
	if l.format == "json" {
		data, _ := json.Marshal(entry)
		line = string(data)
	} else {
		line = fmt.Sprintf("[%s] [%s] %s",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Level,
			entry.Message,
		)
		if len(fields) > 0 {
			parts := make([]string, 0, len(fields))
			for k, v := range fields {
				parts = append(parts, fmt.Sprintf("%s=%v", k, v))
			}
			line += " " + strings.Join(parts, " ")
		}
	}

	if l.stdout {
		fmt.Println(line)
	}
	if l.out != nil {
		l.out.Write([]byte(line + "\n"))
	}
}

// Debug logs a debug message.
func (l *ServerLogger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, first(fields))
}

// Info logs an info message.
func (l *ServerLogger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, first(fields))
}

// Warn logs a warning.
func (l *ServerLogger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, first(fields))
}

// Error logs an error.
func (l *ServerLogger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, first(fields))
}

// Fatal logs a fatal message and exits.
func (l *ServerLogger) Fatal(msg string, fields ...map[string]interface{}) {
	l.log(LevelFatal, msg, first(fields))
	os.Exit(1)
}

func first(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Close closes the underlying file.
func (l *ServerLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	return l.out.Close()
}

// ============================================================
// Audit Logger
// ============================================================

// AuditLogger records user-visible mutations (notes, friends) as JSON lines
// with ULID entry IDs.
type AuditLogger struct {
	mu      sync.Mutex
	out     io.WriteCloser
	entropy io.Reader
}

// AuditEntry is one audit record.
type AuditEntry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor,omitempty"`
	Target    string                 `json:"target,omitempty"`
	Success   bool                   `json:"success"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewAuditLogger creates an audit logger.
func NewAuditLogger(path string) *AuditLogger {
	return &AuditLogger{
		out:     newRotatingWriter(path),
		entropy: rand.Reader,
	}
}

// newEntryID returns an ID like audit_01HQXYZ123ABC.
func (l *AuditLogger) newEntryID() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), l.entropy)
	return "audit_" + id.String()
}

// Log writes one audit entry, assigning ID and timestamp when unset.
func (l *AuditLogger) Log(entry AuditEntry) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = l.newEntryID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if l.out != nil {
		data, _ := json.Marshal(entry)
		l.out.Write(append(data, '\n'))
	}
	return entry.ID
}

// Close closes the underlying file.
func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	return l.out.Close()
}
