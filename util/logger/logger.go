package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger for the named component
func New(name string, debug bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	if !debug {
		// development config starts at debug level
		log = log.WithOptions(zap.IncreaseLevel(zapcore.InfoLevel))
	}
	log = log.WithOptions(zap.AddStacktrace(zapcore.FatalLevel))
	return log.Named(name).Sugar()
}

// OrNop returns log or a logger which discards everything if log is nil
func OrNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}
