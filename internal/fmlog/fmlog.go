// Package fmlog provides the colourised logging FMFS's command-line tools
// and core layers use for diagnostics. It plays the role the original
// implementation's util/FMLog.py module played: one colour per severity,
// printed to stderr.
package fmlog

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// tagField carries the extra severities the original FMLog has that logrus
// doesn't (success, critical) through a structured field the Formatter
// reads back out.
const tagField = "fmlog_tag"

// L is the package-level logger every FMFS layer logs through.
var L = New()

// Logger wraps *logrus.Logger with the handful of severities the original
// FMLog module exposed.
type Logger struct {
	*logrus.Logger
}

// New builds a Logger that writes coloured, single-line entries to stderr.
func New() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.TraceLevel)
	l.SetFormatter(&colorFormatter{})
	return &Logger{Logger: l}
}

// SetOutput redirects log output to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

// Success logs a successful mutation (item created, FAT spliced, block
// purged) the way FMLog.success did.
func (l *Logger) Success(args ...interface{}) {
	l.WithField(tagField, "success").Info(fmt.Sprint(args...))
}

// Successf is the formatted form of Success.
func (l *Logger) Successf(format string, args ...interface{}) {
	l.WithField(tagField, "success").Infof(format, args...)
}

// Critical logs an unrecoverable but non-fatal condition, highlighted the
// way FMLog.critical used a red-on-white background.
func (l *Logger) Critical(args ...interface{}) {
	l.WithField(tagField, "critical").Error(fmt.Sprint(args...))
}

// Criticalf is the formatted form of Critical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.WithField(tagField, "critical").Errorf(format, args...)
}

// colorFormatter renders each entry in a single colour chosen by level (or
// by the fmlog_tag field for the two severities logrus has no level for),
// mirroring util/FMLog.py's Colors table.
type colorFormatter struct{}

func (f *colorFormatter) Format(e *logrus.Entry) ([]byte, error) {
	msg := e.Message

	var c *color.Color
	if tag, ok := e.Data[tagField]; ok {
		switch tag {
		case "success":
			c = color.New(color.FgMagenta)
		case "critical":
			c = color.New(color.FgRed, color.BgWhite)
		}
	}
	if c == nil {
		switch e.Level {
		case logrus.TraceLevel:
			c = color.New(color.FgCyan)
		case logrus.DebugLevel:
			c = color.New(color.FgHiBlack)
		case logrus.InfoLevel:
			c = color.New(color.FgGreen)
		case logrus.WarnLevel:
			c = color.New(color.FgYellow)
		case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
			c = color.New(color.FgRed)
		default:
			c = color.New(color.FgWhite)
		}
	}

	return []byte(c.Sprintf("%s\n", msg)), nil
}
