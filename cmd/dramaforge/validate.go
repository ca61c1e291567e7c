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
	"context"
	"fmt"

	"github.com/dramaforge/dramaforge/pkg/config"
)

// ValidateCmd validates a configuration file without starting the server.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required for validate")
	}

	cfg, loader, err := config.LoadFile(context.Background(), cli.Config)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	defer loader.Close()

	fmt.Printf("Configuration %s is valid\n", cli.Config)
	fmt.Printf("   Server:      %s\n", cfg.Server.Address())
	fmt.Printf("   Categories:  %d rate limit rules\n", len(cfg.Isolation.RateLimits))
	fmt.Printf("   Breaker:     %d errors / %ds\n", cfg.Isolation.Breaker.Threshold, cfg.Isolation.Breaker.WindowSeconds)
	fmt.Printf("   Quota reset: %ds\n", cfg.Isolation.Quota.ResetIntervalSeconds)
	if cfg.Progress.Archive.Enabled {
		fmt.Printf("   Archive:     %s\n", cfg.Progress.Archive.Database)
	}
	return nil
}
