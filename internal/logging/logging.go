package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0664

// Builder assembles a zerolog logger from a writer, a level and an optional file
type Builder struct {
	writer  io.Writer
	path    string
	level   zerolog.Level
	console bool
}

// New returns a builder writing info level JSON to stderr
func New() *Builder {
	return &Builder{writer: os.Stderr, level: zerolog.InfoLevel}
}

// FromWriter sends output to w
func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

// FromPath appends output to the file at path
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

// Console switches to the human readable console format
func (b *Builder) Console() *Builder {
	b.console = true
	return b
}

// Level sets the level by name (debug, info, warn, error, disabled)
func (b *Builder) Level(name string) *Builder {
	if name == "" {
		return b
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(name)); err == nil {
		b.level = lvl
	}
	return b
}

// Make builds the logger. The returned closer releases the log file, if any.
func (b *Builder) Make() (zerolog.Logger, io.Closer, error) {
	w := b.writer
	var closer io.Closer = nopCloser{}
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("failed to open log file: %w", err)
		}
		w = zerolog.SyncWriter(f)
		closer = f
	}
	if b.console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: b.path != ""}
	}
	logger := zerolog.New(w).Level(b.level).With().Timestamp().Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
