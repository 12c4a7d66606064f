package app

import (
	"fmt"
	"io"
	"os"

	"github.com/ochronus/fileapictl/internal/config"
	"github.com/ochronus/fileapictl/internal/services/fileapi"
	"github.com/sirupsen/logrus"
)

// Container centralizes the core dependencies used across the application.
// It is intentionally small and uses interfaces so callers (and tests) can
// substitute implementations easily.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Client fileapi.ClientAPI
	// Out receives the human-readable operation reports.
	Out io.Writer
}

// Option allows customizing the container during construction.
type Option func(*Container) error

// WithLogger overrides the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Container) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}

// WithClient overrides the default file API client.
func WithClient(client fileapi.ClientAPI) Option {
	return func(c *Container) error {
		if client == nil {
			return fmt.Errorf("file API client cannot be nil")
		}
		c.Client = client
		return nil
	}
}

// WithOutput overrides where reports are written (default: stdout).
func WithOutput(w io.Writer) Option {
	return func(c *Container) error {
		if w == nil {
			return fmt.Errorf("output writer cannot be nil")
		}
		c.Out = w
		return nil
	}
}

// NewContainer builds a Container with sensible defaults derived from cfg.
// Options can be supplied to override specific dependencies (useful in tests).
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	container := &Container{
		Config: cfg,
		Logger: buildDefaultLogger(cfg.Loglevel),
		Out:    os.Stdout,
	}

	// Apply options early so tests can inject mocks before defaults are created.
	for _, opt := range opts {
		if err := opt(container); err != nil {
			return nil, err
		}
	}

	if container.Client == nil {
		container.Client = fileapi.NewClient(
			cfg.BaseURL,
			cfg.Token,
			fileapi.WithTimeout(cfg.RequestTimeout()),
			fileapi.WithLogger(container.Logger),
		)
	}

	return container, nil
}

func buildDefaultLogger(levelStr string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
