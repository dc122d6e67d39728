package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	instance *zap.SugaredLogger
	once     sync.Once
)

type Config struct {
	Development bool
	// OutputPath redirects all output to a file. The TUI owns the
	// terminal, so stderr is not available while it runs.
	OutputPath string
}

func New(cfg Config) (*zap.SugaredLogger, error) {
	var err error
	once.Do(func() {
		var zc zap.Config
		if cfg.Development {
			zc = zap.NewDevelopmentConfig()
		} else {
			zc = zap.NewProductionConfig()
		}
		if cfg.OutputPath != "" {
			zc.OutputPaths = []string{cfg.OutputPath}
			zc.ErrorOutputPaths = []string{cfg.OutputPath}
		}
		var l *zap.Logger
		l, err = zc.Build()
		if err != nil {
			return
		}
		instance = l.Sugar()
	})
	return instance, err
}

// Nop returns a logger that discards everything. Handy for tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
