// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package commons

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application-wide logging interface. All services and
// libraries take it by injection rather than using a package-level logger.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
	Sync() error
}

type loggerOptions struct {
	name  string
	path  string
	level string
}

type LoggerOption func(*loggerOptions)

// Name sets the service name, used for the log file name.
func Name(name string) LoggerOption {
	return func(o *loggerOptions) { o.name = name }
}

// Path sets the directory log files are written to.
func Path(path string) LoggerOption {
	return func(o *loggerOptions) { o.path = path }
}

// Level sets the minimum level: debug, info, warn or error.
func Level(level string) LoggerOption {
	return func(o *loggerOptions) { o.level = level }
}

type applicationLogger struct {
	sugar *zap.SugaredLogger
}

// NewApplicationLogger builds a zap-backed Logger writing to stdout and to a
// rotating file under the configured path.
func NewApplicationLogger(opts ...LoggerOption) (Logger, error) {
	options := &loggerOptions{
		name:  "application",
		path:  "logs",
		level: "info",
	}
	for _, opt := range opts {
		opt(options)
	}

	level, err := zapcore.ParseLevel(options.level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(options.path, 0o755); err != nil {
		return nil, err
	}

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(options.path, options.name+".log"),
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &applicationLogger{sugar: logger.Sugar().Named(options.name)}, nil
}

func (l *applicationLogger) Debug(args ...interface{})                   { l.sugar.Debug(args...) }
func (l *applicationLogger) Debugf(template string, args ...interface{}) { l.sugar.Debugf(template, args...) }
func (l *applicationLogger) Info(args ...interface{})                    { l.sugar.Info(args...) }
func (l *applicationLogger) Infof(template string, args ...interface{})  { l.sugar.Infof(template, args...) }
func (l *applicationLogger) Warn(args ...interface{})                    { l.sugar.Warn(args...) }
func (l *applicationLogger) Warnf(template string, args ...interface{})  { l.sugar.Warnf(template, args...) }
func (l *applicationLogger) Error(args ...interface{})                   { l.sugar.Error(args...) }
func (l *applicationLogger) Errorf(template string, args ...interface{}) { l.sugar.Errorf(template, args...) }
func (l *applicationLogger) Fatal(args ...interface{})                   { l.sugar.Fatal(args...) }
func (l *applicationLogger) Fatalf(template string, args ...interface{}) { l.sugar.Fatalf(template, args...) }
func (l *applicationLogger) Sync() error                                 { return l.sugar.Sync() }
