package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"invoicegrid/internal/config"
)

// New builds the process logger from config. Unknown levels fall back to info.
func New(cfg config.LogConfig) *logrus.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit output, used by the CLI and tests.
func NewWithWriter(cfg config.LogConfig, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}
