// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging builds the zap logger used by the command line tools.
package logging

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// MaxVerbosity is the highest accepted verbosity.
const MaxVerbosity = 4

// Level maps a verbosity in [0, MaxVerbosity] to a zap level: 0 only
// reports critical failures, 1 errors, 2 warnings, 3 informational
// messages and 4 everything.  Out of range values are clamped.
func Level(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.DPanicLevel
	case verbosity == 1:
		return zapcore.ErrorLevel
	case verbosity == 2:
		return zapcore.WarnLevel
	case verbosity == 3:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// Rotation limits of the log file.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New returns a logger writing human readable lines to standard error.
// When file is not empty the same entries are also written to file as
// JSON, rotated by size.
func New(verbosity int, file string) (*zap.SugaredLogger, error) {
	return build(verbosity, file, zapcore.Lock(os.Stderr))
}

func build(verbosity int, file string, console zapcore.WriteSyncer) (*zap.SugaredLogger, error) {
	level := Level(verbosity)
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), console, level),
	}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating log directory")
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), w, level))
	}
	return zap.New(zapcore.NewTee(cores...)).Sugar(), nil
}
