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
	"io"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/cmd/secretconf/opts"
	"github.com/walteh/secretconf/pkg/binary"
	"github.com/walteh/secretconf/pkg/log"
	"github.com/walteh/secretconf/pkg/secrets"
)

// NewDecryptCmd creates the decrypt command
func NewDecryptCmd(o *opts.RootOpts) *cobra.Command {
	var flags secrets.DecryptOptions

	cmd := &cobra.Command{
		Use:   "decrypt [files...]",
		Short: "Decrypt sops-encrypted config files",
		Long: `Decrypt runs sops over the given files, or over every config under the
root when none are given. Without --in-place or --output a single file is
decrypted to stdout. Files without sops metadata are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecrypt(cmd.Context(), o, args, flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&flags.InPlace, "in-place", "i", false, "decrypt files in place")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "write to this file (single file only)")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "pass --verbose to sops")

	return cmd
}

func runDecrypt(ctx context.Context, o *opts.RootOpts, args []string, flags secrets.DecryptOptions, stdout io.Writer) error {
	console := log.FromContext(ctx)

	files, err := targets(ctx, o, args, false)
	if err != nil {
		return err
	}

	toStdout := !flags.InPlace && flags.Output == ""
	if (toStdout || flags.Output != "") && len(files) != 1 {
		return errors.Errorf("decrypting %d files needs --in-place", len(files))
	}

	for _, path := range files {
		var res *binary.Result
		err := withSpinner(ctx, o, "decrypting "+path, func() error {
			var err error
			res, err = o.Sops.DecryptFile(ctx, path, flags)
			return err
		})

		if toStdout && err == nil {
			if _, err := stdout.Write(res.Stdout); err != nil {
				return errors.Errorf("writing decrypted output: %w", err)
			}
			return nil
		}

		console.FileResult(cryptResult(path, log.StatusDecrypted, err))

		if errors.Is(err, secrets.ErrSopsBinaryNotFound) || errors.Is(err, secrets.ErrInvalidArguments) {
			return err
		}
	}

	if n := console.Failed(); n > 0 {
		return errors.Errorf("%d of %d files failed to decrypt", n, len(files))
	}
	return nil
}
