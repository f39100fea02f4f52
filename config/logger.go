package config

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// InitLogger builds the process logger from cfg and stores it in Log.
func InitLogger(cfg LogConfig) *logrus.Logger {
	Log = NewLogger(cfg, os.Stdout)
	return Log
}

// NewLogger returns a logrus logger writing to out.
func NewLogger(cfg LogConfig, out io.Writer) *logrus.Logger {
	l := logrus.New()

	if strings.EqualFold(cfg.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	l.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	return l
}
