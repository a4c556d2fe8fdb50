package rigging

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slimloans/rigging/config"
	"github.com/slimloans/rigging/errors"
)

// FormatterFunc builds a fresh logrus formatter
type FormatterFunc func() logrus.Formatter

var (
	formatterLock sync.RWMutex

	formatters = map[string]FormatterFunc{
		"dev": func() logrus.Formatter {
			return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339}
		},
		"logfmt": func() logrus.Formatter {
			return &logrus.TextFormatter{DisableColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339}
		},
		"json": func() logrus.Formatter {
			return &logrus.JSONFormatter{TimestampFormat: time.RFC3339}
		},
	}
)

// RegisterFormatter makes a formatter available to the logger.formatter
// setting, registering an existing name replaces it
func RegisterFormatter(name string, fn FormatterFunc) {
	formatterLock.Lock()
	defer formatterLock.Unlock()

	formatters[name] = fn
}

// Formatters returns the registered formatter names
func Formatters() []string {
	formatterLock.RLock()
	defer formatterLock.RUnlock()

	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatter(name string) (logrus.Formatter, error) {
	formatterLock.RLock()
	fn, ok := formatters[name]
	formatterLock.RUnlock()

	if !ok {
		return nil, errors.Errorf(errors.ErrorMissConfigured, "unknown log formatter %q", name)
	}
	return fn(), nil
}

// RegisterDestination names a writer so logger.destinations can refer to it
func (e *Environment) RegisterDestination(name string, w io.Writer) {
	e.destinations[name] = w
}

// initLogger replaces the environment logger with one built from config,
// files opened for the previous logger are closed
func (e *Environment) initLogger() error {
	c := e.config.Logger

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrap(errors.ErrorMissConfigured, err)
	}

	f, err := formatter(c.Formatter)
	if err != nil {
		return err
	}

	writers, closers, err := e.openDestinations(c.Destinations)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(f)

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	e.closeLogs()
	e.logger, e.logClosers = logger, closers

	return nil
}

func (e *Environment) openDestinations(destinations []string) ([]io.Writer, []io.Closer, error) {
	var writers []io.Writer
	var closers []io.Closer

	for _, dest := range destinations {
		if w, ok := e.destinations[dest]; ok {
			writers = append(writers, w)
			continue
		}

		switch dest {
		case config.Stdout:
			writers = append(writers, os.Stdout)
		case config.Stderr:
			writers = append(writers, os.Stderr)
		case config.DevNull:
			writers = append(writers, io.Discard)
		default:
			f, err := openLogFile(dest)
			if err != nil {
				for _, c := range closers {
					c.Close()
				}
				return nil, nil, err
			}
			writers = append(writers, f)
			closers = append(closers, f)
		}
	}

	return writers, closers, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrorMissConfigured, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorMissConfigured, err)
	}
	return f, nil
}

func (e *Environment) closeLogs() {
	for _, c := range e.logClosers {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Warn("unable to close log destination")
		}
	}
	e.logClosers = nil
}
