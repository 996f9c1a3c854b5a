package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// capture は TestLogger とその派生ロガーが共有する出力先です。
type capture struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	level Level
}

// TestLogger はログを1行1 JSON でメモリに溜めるテスト用 Logger です。
// With で作った派生ロガーは同じ capture に書き込むので、並行な学習器から使えます。
//
//	provider, _ := log.NewTestLoggerProvider(log.LevelDebug)
//	log.SetProvider(provider)
//	...
//	assert.True(t, provider.Logger().ContainsMessage("Candidate excluded"))
type TestLogger struct {
	out    *capture
	fields map[string]interface{}
}

// NewTestLogger returns a logger that drops entries below level.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	c := &capture{level: level}
	return &TestLogger{out: c, fields: map[string]interface{}{}}, &c.buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.write(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.write(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.write(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.write(LevelError, msg, fields) }

func (t *TestLogger) With(fields ...any) Logger {
	merged := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		merged[k] = v
	}
	putFields(merged, fields)
	return &TestLogger{out: t.out, fields: merged}
}

func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	t.out.mu.Lock()
	defer t.out.mu.Unlock()
	return level >= t.out.level
}

func (t *TestLogger) write(level Level, msg string, fields []any) {
	t.out.mu.Lock()
	defer t.out.mu.Unlock()
	if level < t.out.level {
		return
	}

	entry := map[string]interface{}{"level": level.String(), "message": msg}
	for k, v := range t.fields {
		entry[k] = v
	}
	putFields(entry, fields)

	line, err := json.Marshal(entry)
	if err != nil {
		// 値が JSON にできない場合はメッセージだけ残す
		line, _ = json.Marshal(map[string]string{"level": level.String(), "message": msg, ErrAttrKey: err.Error()})
	}
	t.out.buf.Write(line)
	t.out.buf.WriteByte('\n')
}

// putFields は key/value の組を dst に書きます。error は文字列にし、余った key は捨てます。
func putFields(dst map[string]interface{}, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		v := kv[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		dst[fmt.Sprint(kv[i])] = v
	}
}

// GetBuffer returns the shared buffer.
func (t *TestLogger) GetBuffer() *bytes.Buffer {
	return &t.out.buf
}

// GetLogEntries decodes every captured line.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	t.out.mu.Lock()
	raw := t.out.buf.String()
	t.out.mu.Unlock()

	var entries []map[string]interface{}
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry := map[string]interface{}{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (t *TestLogger) ContainsMessage(message string) bool {
	t.out.mu.Lock()
	defer t.out.mu.Unlock()
	return strings.Contains(t.out.buf.String(), message)
}

// ContainsField は key=value のエントリがあるかを返します。
// JSON を経由するため数値は float64 で比較してください。
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	return t.count(func(e map[string]interface{}) bool {
		v, ok := e[key]
		return ok && v == value
	}) > 0
}

// CountLevel counts entries whose level is name ("DEBUG", "INFO", "WARN", "ERROR").
func (t *TestLogger) CountLevel(name string) int {
	return t.count(func(e map[string]interface{}) bool { return e["level"] == name })
}

func (t *TestLogger) count(match func(map[string]interface{}) bool) int {
	entries, err := t.GetLogEntries()
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if match(e) {
			n++
		}
	}
	return n
}

func (t *TestLogger) Clear() {
	t.out.mu.Lock()
	t.out.buf.Reset()
	t.out.mu.Unlock()
}

// TestLoggerProvider は SetProvider に渡してパッケージのログを捕捉するための LoggerProvider です。
type TestLoggerProvider struct {
	logger *TestLogger
}

func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buf
}

func (p *TestLoggerProvider) GetLogger() Logger { return p.logger }

func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.out.mu.Lock()
	p.logger.out.level = level
	p.logger.out.mu.Unlock()
}

// Logger returns the captured TestLogger for assertions.
func (p *TestLoggerProvider) Logger() *TestLogger { return p.logger }
