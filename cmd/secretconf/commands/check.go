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
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/secretconf/cmd/secretconf/opts"
	"github.com/walteh/secretconf/pkg/document"
	"github.com/walteh/secretconf/pkg/locate"
	"github.com/walteh/secretconf/pkg/log"
)

// NewCheckCmd creates the check command
func NewCheckCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fail when secrets are committed in cleartext",
		Long: `Check inspects every config file under the root. It fails when:
1. An environment file has Secret-suffixed keys but no sops metadata
2. The base config has any Secret-suffixed keys
3. A file cannot be parsed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), o)
		},
	}

	return cmd
}

func runCheck(ctx context.Context, o *opts.RootOpts) error {
	console := log.FromContext(ctx)
	locator := o.Locator()

	files, err := locator.ConfigFiles(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		console.Warningf("no config files under %s", o.ConfigRoot)
		return nil
	}

	results := make([]log.FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			results[i] = checkFile(gctx, locator, path, isBase(o, path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		console.FileResult(r)
	}

	if n := console.Failed(); n > 0 {
		return errors.Errorf("%d of %d config files failed the check", n, len(files))
	}
	console.Successf("%d config files checked", len(files))
	return nil
}

func checkFile(ctx context.Context, locator *locate.Locator, path string, base bool) log.FileResult {
	file, err := locator.Read(ctx, path)
	if err != nil {
		return log.FileResult{Path: path, Status: log.StatusFailed, Detail: err.Error()}
	}

	keys := document.SecretKeys(file.Contents)
	switch {
	case base && len(keys) > 0:
		return log.FileResult{Path: path, Status: log.StatusFailed, Detail: "base config has secrets: " + strings.Join(keys, ", ")}
	case len(keys) > 0 && !file.Contents.IsEncrypted():
		return log.FileResult{Path: path, Status: log.StatusFailed, Detail: "unencrypted secrets: " + strings.Join(keys, ", ")}
	case file.Contents.IsEncrypted():
		return log.FileResult{Path: path, Status: log.StatusValid, Detail: "encrypted"}
	default:
		return log.FileResult{Path: path, Status: log.StatusValid}
	}
}

func isBase(o *opts.RootOpts, path string) bool {
	return o.BaseConfig != "" && filepath.Base(path) == filepath.Base(o.BaseConfig)
}
