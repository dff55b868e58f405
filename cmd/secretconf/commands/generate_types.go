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

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/cmd/secretconf/opts"
	"github.com/walteh/secretconf/pkg/log"
	"github.com/walteh/secretconf/pkg/schema"
	"github.com/walteh/secretconf/pkg/typegen"
)

// NewGenerateTypesCmd creates the generate-types command
func NewGenerateTypesCmd(o *opts.RootOpts) *cobra.Command {
	var (
		types    typegen.Options
		compiler string
	)

	cmd := &cobra.Command{
		Use:   "generate-types",
		Short: "Write TypeScript declarations for the config schema",
		Long: `Generate-types compiles {root}/schema.json with json2ts and writes
{root}/{out} with a root interface that adds runtimeEnv. The schema must
have a title other than "config".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateTypes(cmd.Context(), o, types, typegen.NewExternalCompiler(compiler, nil))
		},
	}

	cmd.Flags().StringVar(&types.RootTypeName, "root-type", typegen.DefaultRootTypeName, "name of the generated root interface")
	cmd.Flags().StringVarP(&types.FilePath, "out", "o", typegen.DefaultFilePath, "output path relative to the config root")
	cmd.Flags().StringVar(&compiler, "compiler", typegen.DefaultCompilerBinary, "schema-to-type compiler binary")

	return cmd
}

func runGenerateTypes(ctx context.Context, o *opts.RootOpts, types typegen.Options, compiler typegen.Compiler) error {
	console := log.FromContext(ctx)
	locator := o.Locator()

	raw, found, err := locator.Schema(ctx)
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("%w: expected %s", schema.ErrNoSchemaFound, locator.SchemaPath())
	}

	gen := typegen.New(o.ConfigRoot, types, compiler)

	var path string
	err = withSpinner(ctx, o, "generating types", func() error {
		path, err = gen.Generate(ctx, raw)
		return err
	})
	if err != nil {
		console.FileResult(log.FileResult{Path: gen.Path(), Status: log.StatusFailed})
		return err
	}

	console.FileResult(log.FileResult{Path: path, Status: log.StatusGenerated})
	return nil
}
