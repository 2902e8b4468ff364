// Package logger builds the zerolog loggers handed to the stateful
// boardkit components.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0664

// Build accumulates logger configuration.
type Build struct {
	writer io.Writer
	path   string
}

// Data holds a constructed logger and, when logging to a file, the open
// handle so the caller can close it.
type Data struct {
	writer  io.Writer
	LogFile *os.File
	Logger  zerolog.Logger
}

func New() *Build {
	return &Build{}
}

// FromPath directs log output to a file, created if absent and appended
// to otherwise. Takes precedence over FromBuffer.
func (build *Build) FromPath(path string) *Build {
	build.path = path
	return build
}

// FromBuffer directs log output to an arbitrary writer.
func (build *Build) FromBuffer(w io.Writer) *Build {
	build.writer = w
	return build
}

// Make constructs the logger. Without a configured sink it writes to
// stdout.
func (build *Build) Make() (*Data, error) {
	data := &Data{writer: os.Stdout}
	if build.writer != nil {
		data.writer = build.writer
	}

	if build.path != "" {
		file, err := os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		data.LogFile = file
		data.writer = zerolog.SyncWriter(file)
	}

	data.Logger = zerolog.New(data.writer).With().Timestamp().Logger()

	return data, nil
}
