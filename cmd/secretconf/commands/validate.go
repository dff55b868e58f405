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

package commands

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/walteh/secretconf/cmd/secretconf/opts"
	"github.com/walteh/secretconf/pkg/config"
	"github.com/walteh/secretconf/pkg/log"
)

// NewValidateCmd creates the validate command
func NewValidateCmd(o *opts.RootOpts) *cobra.Command {
	var env, file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load a config and check it against the schema",
		Long: `Validate runs the full load pipeline (base merge, sops decryption,
${VAR} expansion) for one environment and checks the result against
{root}/schema.json. The environment comes from --env or the runtime
environment variable. --file validates an explicit file instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), o, env, file)
		},
	}

	cmd.Flags().StringVarP(&env, "env", "e", "", "environment to validate (overrides the runtime environment variable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "validate this file instead of the environment's config")

	return cmd
}

func runValidate(ctx context.Context, o *opts.RootOpts, env, file string) error {
	console := log.FromContext(ctx)

	// An explicit file with no environment set is named after itself.
	if file != "" && env == "" {
		if v, ok := o.LoaderOptions("").Lookup(runtimeEnvName(o)); !ok || v == "" {
			env = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
	}

	loader, err := config.Open(ctx, o.LoaderOptions(env))
	if err != nil {
		return err
	}

	target := file
	if file != "" {
		_, err = loader.ValidateFile(ctx, file)
	} else {
		target = loader.Env()
		_, err = loader.Validate(ctx)
	}
	if err != nil {
		console.FileResult(log.FileResult{Path: target, Status: log.StatusFailed})
		return err
	}

	console.FileResult(log.FileResult{Path: target, Status: log.StatusValid, Detail: "env " + loader.Env()})
	return nil
}

func runtimeEnvName(o *opts.RootOpts) string {
	if o.RuntimeEnvName == "" {
		return config.DefaultRuntimeEnvName
	}
	return o.RuntimeEnvName
}
