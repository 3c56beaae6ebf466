package logs

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options controls logger construction.
type Options struct {
	Level  string // trace|debug|info|warning|error|fatal
	Format string // text|json
	Output io.Writer
}

// New builds a logrus logger from opts.
func New(opts Options) *logrus.Logger {
	l := logrus.New()

	switch strings.ToLower(strings.TrimSpace(opts.Level)) {
	case "trace":
		l.SetLevel(logrus.TraceLevel)
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "warning", "warn":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	case "fatal":
		l.SetLevel(logrus.FatalLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	if strings.EqualFold(opts.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stdout)
	}
	return l
}
