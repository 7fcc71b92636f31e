// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup points the global logger at a human-friendly console writer and,
// when file is set, a rotating JSON log file. The returned func closes the file.
func Setup(level, file string) (func() error, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	closer := func() error { return nil }
	if file != "" {
		lj := &lumberjack.Logger{Filename: file, MaxSize: 50, MaxAge: 14, MaxBackups: 5, Compress: true}
		out = zerolog.MultiLevelWriter(out, lj)
		closer = lj.Close
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}
