// Package logging configures the structured logger every component takes
// as an explicit *slog.Logger argument: plain text by default, JSON on
// request, with an optional syslog destination for long-running
// invocations supervised by an init system rather than a terminal.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"log/syslog"
	"os"
)

// Format selects the handler used for non-syslog output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures New.
type Options struct {
	Format       Format
	Debug        bool   // enables slog.LevelDebug instead of slog.LevelInfo
	SyslogSocket string // e.g. "/dev/log"; empty disables syslog
	Output       io.Writer
}

// New builds the process-wide logger. Components never read a package
// global — New's result is threaded through explicitly so tests can
// supply their own discard logger.
func New(opts Options) (*slog.Logger, error) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var w io.Writer = opts.Output
	if w == nil {
		w = os.Stderr
	}

	if opts.SyslogSocket != "" {
		sw, err := syslog.Dial("unixgram", opts.SyslogSocket, syslog.LOG_INFO|syslog.LOG_DAEMON, "bluegreen-deploy")
		if err != nil {
			return nil, fmt.Errorf("dial syslog socket %s: %w", opts.SyslogSocket, err)
		}
		w = sw
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch opts.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler), nil
}
