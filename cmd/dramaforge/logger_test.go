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
	"log/slog"
	"testing"

	"github.com/dramaforge/dramaforge/pkg/config"
)

func TestInitLoggerUsesConfigLevel(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	t.Setenv(LogFileEnvVar, "")
	t.Setenv(LogFormatEnvVar, "")

	cleanup, err := initLogger("", "", "", &config.LoggerConfig{Level: "error"})
	if err != nil {
		t.Fatalf("initLogger: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	ctx := context.Background()
	if slog.Default().Enabled(ctx, slog.LevelWarn) {
		t.Error("config level error should suppress warn")
	}
	if !slog.Default().Enabled(ctx, slog.LevelError) {
		t.Error("config level error should allow error")
	}
}

func TestInitLoggerFlagOverridesConfig(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	cleanup, err := initLogger("debug", "", "", &config.LoggerConfig{Level: "error"})
	if err != nil {
		t.Fatalf("initLogger: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("CLI flag should override the config level")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "info"); got != "info" {
		t.Errorf("expected info, got %q", got)
	}
	if got := firstNonEmpty("debug", "info"); got != "debug" {
		t.Errorf("expected debug, got %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
