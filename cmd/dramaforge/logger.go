// Copyright 2026 The Dramaforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/dramaforge/dramaforge/pkg/config"
	"github.com/dramaforge/dramaforge/pkg/logger"
)

const (
	// LogFileEnvVar is the environment variable name for log file path
	LogFileEnvVar = "LOG_FILE"
	// LogLevelEnvVar is the environment variable name for log level
	LogLevelEnvVar = "LOG_LEVEL"
	// LogFormatEnvVar is the environment variable name for log format
	LogFormatEnvVar = "LOG_FORMAT"
	// DefaultLogFormat is the default log format
	DefaultLogFormat = "simple"
)

// initLogger initializes the process logger. Settings layer as
// CLI flags > env vars > config file > defaults; cfg may be nil before a
// config file is loaded.
func initLogger(cliLogLevel, cliLogFile, cliLogFormat string, cfg *config.LoggerConfig) (func(), error) {
	var cfgLevel, cfgFile, cfgFormat string
	if cfg != nil {
		cfgLevel = cfg.Level
		cfgFile = cfg.File
		cfgFormat = cfg.Format
	}

	logLevel := firstNonEmpty(cliLogLevel, os.Getenv(LogLevelEnvVar), cfgLevel, "info")
	logFile := firstNonEmpty(cliLogFile, os.Getenv(LogFileEnvVar), cfgFile)
	logFormat := firstNonEmpty(cliLogFormat, os.Getenv(LogFormatEnvVar), cfgFormat, DefaultLogFormat)

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output *os.File
	var cleanup func()
	if logFile != "" {
		file, cleanupFn, err := logger.OpenLogFile(logFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = cleanupFn
	} else {
		output = os.Stderr
	}

	logger.Init(level, output, logFormat)
	return cleanup, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
