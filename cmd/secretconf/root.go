// Copyright 2025 walteh LLC
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
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/secretconf/cmd/secretconf/opts"
	"github.com/walteh/secretconf/pkg/config"
	"github.com/walteh/secretconf/pkg/log"
	"github.com/walteh/secretconf/pkg/secrets"
)

// newRootOpts creates a new RootOpts with initialized dependencies
func newRootOpts() *opts.RootOpts {
	return &opts.RootOpts{
		Sops: secrets.New(nil),
	}
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigRoot, "root", "r", config.DefaultConfigRoot, "config root directory")
	cmd.PersistentFlags().StringVar(&o.RuntimeEnvName, "env-var", config.DefaultRuntimeEnvName, "environment variable naming the runtime environment")
	cmd.PersistentFlags().StringVar(&o.BaseConfig, "base", config.DefaultBaseConfig, "base config file name")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&o.NoSpinner, "no-spinner", false, "disable progress spinners")
}

// setupLogging configures zerolog and the console logger based on flags
func setupLogging(cmd *cobra.Command, o *opts.RootOpts) {
	level := zerolog.InfoLevel
	if o.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger

	if o.Console == nil {
		consoleLevel := zerolog.Disabled
		if o.Debug {
			consoleLevel = zerolog.DebugLevel
		}
		o.Console = log.New(os.Stdout, consoleLevel)
	}

	ctx := logger.WithContext(cmd.Context())
	cmd.SetContext(log.NewContext(ctx, o.Console))
}
