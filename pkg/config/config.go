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

// Package config defines the dramaforge configuration model and loading.
//
// Configuration is read from YAML, with ${ENV_VAR} expansion and optional
// .env loading. A file provider supports watching for changes so limit
// tables can be reloaded without a restart.
package config

import (
	"fmt"
)

// Config is the root configuration for the dramaforge isolation core.
type Config struct {
	// Server configures the HTTP/WebSocket listener.
	Server ServerConfig `yaml:"server,omitempty" mapstructure:"server"`

	// Logger configures structured logging.
	Logger LoggerConfig `yaml:"logger,omitempty" mapstructure:"logger"`

	// Auth configures tenant resolution from bearer tokens.
	// When empty, every request runs as the anonymous tenant.
	Auth AuthConfig `yaml:"auth,omitempty" mapstructure:"auth"`

	// Isolation configures the per-tenant admission components.
	Isolation IsolationConfig `yaml:"isolation,omitempty" mapstructure:"isolation"`

	// Progress configures progress tracking and cleanup.
	Progress ProgressConfig `yaml:"progress,omitempty" mapstructure:"progress"`

	// Notify configures realtime push delivery.
	Notify NotifyConfig `yaml:"notify,omitempty" mapstructure:"notify"`

	// Metrics configures the Prometheus metrics endpoint.
	Metrics MetricsConfig `yaml:"metrics,omitempty" mapstructure:"metrics"`

	// Databases holds named database connections, referenced by other
	// sections (e.g. progress.archive.database).
	Databases map[string]*DatabaseConfig `yaml:"databases,omitempty" mapstructure:"databases"`
}

// SetDefaults applies defaults to all sections.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Logger.SetDefaults()
	c.Isolation.SetDefaults()
	c.Progress.SetDefaults()
	c.Notify.SetDefaults()
	for _, db := range c.Databases {
		db.SetDefaults()
	}
}

// Validate validates all sections.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Isolation.Validate(); err != nil {
		return err
	}
	if err := c.Progress.Validate(); err != nil {
		return err
	}
	for name, db := range c.Databases {
		if err := db.Validate(); err != nil {
			return fmt.Errorf("databases.%s: %w", name, err)
		}
	}
	if c.Progress.Archive.Enabled {
		if _, ok := c.GetDatabase(c.Progress.Archive.Database); !ok {
			return fmt.Errorf("progress.archive.database %q not found in databases section", c.Progress.Archive.Database)
		}
	}
	return nil
}

// GetDatabase returns a named database config.
func (c *Config) GetDatabase(name string) (*DatabaseConfig, bool) {
	db, ok := c.Databases[name]
	return db, ok
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served.
	Enabled bool `yaml:"enabled,omitempty" mapstructure:"enabled"`
}

// AuthConfig configures JWT-based tenant resolution.
//
// Token issuance lives in the surrounding application; the core only
// validates tokens to attribute requests to a tenant. Requests without a
// valid token are attributed to the anonymous tenant, never rejected.
type AuthConfig struct {
	// JWKSURL is the JWKS endpoint of the auth provider.
	JWKSURL string `yaml:"jwks_url,omitempty" mapstructure:"jwks_url"`

	// Issuer is the expected token issuer.
	Issuer string `yaml:"issuer,omitempty" mapstructure:"issuer"`

	// Audience is the expected token audience.
	Audience string `yaml:"audience,omitempty" mapstructure:"audience"`
}

// IsEnabled returns true when tenant resolution is configured.
func (c *AuthConfig) IsEnabled() bool {
	return c != nil && c.JWKSURL != ""
}
