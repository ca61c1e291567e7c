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

package config

import "fmt"

// ServerConfig configures the HTTP/WebSocket listener.
type ServerConfig struct {
	// Host is the bind address.
	Host string `yaml:"host,omitempty" mapstructure:"host"`

	// Port is the listen port.
	Port int `yaml:"port,omitempty" mapstructure:"port"`

	// ShutdownGraceSeconds is the graceful shutdown timeout.
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds,omitempty" mapstructure:"shutdown_grace_seconds"`
}

// SetDefaults applies server defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8090
	}
	if c.ShutdownGraceSeconds == 0 {
		c.ShutdownGraceSeconds = 15
	}
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Address returns the host:port bind address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggerConfig configures structured logging.
type LoggerConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level,omitempty" mapstructure:"level"`

	// Format is the output format (simple or verbose).
	Format string `yaml:"format,omitempty" mapstructure:"format"`

	// File is the log file path; empty logs to stderr.
	File string `yaml:"file,omitempty" mapstructure:"file"`
}

// SetDefaults applies logger defaults.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}
