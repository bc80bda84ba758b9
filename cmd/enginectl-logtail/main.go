// Command enginectl-logtail follows an enginectl JSON log file (the format
// written by cmd/enginectl via slog.NewJSONHandler, rotated through
// lumberjack) and renders it as colorized, human-readable lines.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nxadm/tail"
)

func main() {
	flag.Parse()

	if len(flag.Args()) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s <log file path>\n", os.Args[0])
		os.Exit(1)
	}
	inputPath := flag.Args()[0]

	h := newHandler(os.Stdout)

	t, err := tail.TailFile(inputPath, tail.Config{
		ReOpen:        true,
		Follow:        true,
		CompleteLines: true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer t.Cleanup()

	for line := range t.Lines {
		if line.Err != nil {
			fmt.Fprintln(os.Stderr, line.Err)
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line.Text), &rec); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if err := h.handle(rec); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

const (
	timeFormat = "[15:04:05.000]"

	reset = "\033[0m"

	cyan        = 36
	lightGray   = 37
	darkGray    = 90
	lightRed    = 91
	lightBlue   = 94
	lightYellow = 93
	lightMagenta = 95
)

func colorize(code int, v string) string {
	return fmt.Sprintf("\033[%sm%s%s", strconv.Itoa(code), v, reset)
}

// handler renders one decoded slog JSON record per call. It is not an
// slog.Handler itself: it consumes the already-marshaled record a JSON
// handler produced, since that's what's on disk by the time this tool
// reads it.
type handler struct {
	mu     sync.Mutex
	writer io.Writer
}

func newHandler(w io.Writer) *handler {
	return &handler{writer: w}
}

func (h *handler) handle(r map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	levelName, _ := r[slog.LevelKey].(string)
	var level slog.Level
	switch strings.ToUpper(levelName) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	levelLabel := levelName + ":"
	switch {
	case level <= slog.LevelDebug:
		levelLabel = colorize(lightGray, levelLabel)
	case level <= slog.LevelInfo:
		levelLabel = colorize(cyan, levelLabel)
	case level <= slog.LevelWarn:
		levelLabel = colorize(lightYellow, levelLabel)
	case level <= slog.LevelError:
		levelLabel = colorize(lightRed, levelLabel)
	default:
		levelLabel = colorize(lightMagenta, levelLabel)
	}

	var timestamp string
	if raw, ok := r[slog.TimeKey].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			timestamp = colorize(lightGray, ts.Local().Format(timeFormat))
		}
	}

	msg, _ := r[slog.MessageKey].(string)

	delete(r, slog.LevelKey)
	delete(r, slog.TimeKey)
	delete(r, slog.MessageKey)

	var attrs []byte
	if len(r) > 0 {
		var err error
		attrs, err = json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal attrs: %w", err)
		}
	}

	out := &bytes.Buffer{}
	for _, part := range []string{timestamp, levelLabel, msg} {
		if part == "" {
			continue
		}
		out.WriteString(part)
		out.WriteByte(' ')
	}
	if len(attrs) > 0 {
		out.WriteString(colorize(darkGray, string(attrs)))
	}
	out.WriteByte('\n')

	_, err := h.writer.Write(out.Bytes())
	return err
}
