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
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/walteh/secretconf/cmd/secretconf/commands"
	"github.com/walteh/secretconf/cmd/secretconf/opts"
	"github.com/walteh/secretconf/pkg/log"
)

func main() {
	o := newRootOpts()

	os.Exit(execute(context.Background(), o, newRootCmd(o)))
}

// execute runs the command tree and returns the process exit code. A
// failure is reported on the console under the failing command's path.
func execute(ctx context.Context, o *opts.RootOpts, rootCmd *cobra.Command) int {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	if o.Console != nil {
		o.Console.Errorf("%s: %s", cmd.CommandPath(), err.Error())
	}
	return 1
}

func newRootCmd(o *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "secretconf",
		Short: "Manage environment configs with sops-encrypted secrets",
		Long: `secretconf loads {root}/{env}.{json,yaml,yml} on top of a base config,
decrypts sops-encrypted values, expands ${VAR} placeholders and validates
the result against {root}/schema.json.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd, o)
			log.FromContext(cmd.Context()).Header(cmd.Name())
		},
	}

	addRootFlags(rootCmd, o)

	rootCmd.AddCommand(
		commands.NewEncryptCmd(o),
		commands.NewDecryptCmd(o),
		commands.NewValidateCmd(o),
		commands.NewCheckCmd(o),
		commands.NewGenerateTypesCmd(o),
	)

	return rootCmd
}
