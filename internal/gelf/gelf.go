package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// Writer forwards zap JSON log lines to a GELF UDP input. It implements
// zapcore.WriteSyncer so it can sit behind its own zap core.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}
	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// syslog severities used by GELF.
var levels = map[string]int{
	"debug":  7,
	"info":   6,
	"warn":   4,
	"error":  3,
	"dpanic": 2,
	"panic":  2,
	"fatal":  2,
}

// Encode turns one zap JSON entry into a GELF 1.1 payload. Structured
// fields become "_"-prefixed additional fields.
func (w *Writer) Encode(p []byte) ([]byte, error) {
	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		entry = map[string]any{"msg": strings.TrimRight(string(p), "\n")}
	}

	msg, _ := entry["msg"].(string)
	lvl, _ := entry["level"].(string)
	level, ok := levels[lvl]
	if !ok {
		level = 6
	}
	ts := float64(time.Now().UnixNano()) / 1e9
	if t, ok := entry["ts"].(float64); ok {
		ts = t
	}

	out := map[string]any{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": msg,
		"timestamp":     ts,
		"level":         level,
		"_service":      w.service,
	}
	for k, v := range entry {
		switch k {
		case "msg", "level", "ts", "id":
			continue
		}
		out["_"+k] = v
	}
	return json.Marshal(out)
}

// Write implements io.Writer. Each call sends one GELF message; delivery
// failures are dropped so logging never fails the caller.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := w.Encode(p)
	if err != nil {
		return len(p), nil
	}
	w.conn.Write(payload)
	return len(p), nil
}

func (w *Writer) Sync() error { return nil }

func (w *Writer) Close() error { return w.conn.Close() }
