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

	"github.com/walteh/secretconf/cmd/secretconf/opts"
	"github.com/walteh/secretconf/pkg/document"
	"github.com/walteh/secretconf/pkg/log"
	"github.com/walteh/secretconf/pkg/secrets"
)

// NewEncryptCmd creates the encrypt command
func NewEncryptCmd(o *opts.RootOpts) *cobra.Command {
	var (
		flags   secrets.EncryptOptions
		keyType string
	)

	cmd := &cobra.Command{
		Use:   "encrypt [files...]",
		Short: "Encrypt Secret-suffixed keys with sops",
		Long: `Encrypt runs sops over the given files, or over every environment
config under the root when none are given. By default only keys ending in
"Secret" are encrypted. Files that are already encrypted or hold no secrets
are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags.KeyType = secrets.KeyType(keyType)
			if flags.Output == "" {
				flags.InPlace = true
			}
			return runEncrypt(ctx, o, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "write to this file instead of encrypting in place (single file only)")
	cmd.Flags().StringVar(&keyType, "key-type", "", "key backend: "+keyTypeList())
	cmd.Flags().StringVar(&flags.KeyID, "key-id", "", "key id, fingerprint or ARN for --key-type")
	cmd.Flags().StringVar(&flags.EncryptedSuffix, "encrypted-suffix", "", "encrypt only keys with this suffix (default \"Secret\")")
	cmd.Flags().StringVar(&flags.UnencryptedSuffix, "unencrypted-suffix", "", "encrypt every key except those with this suffix")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "pass --verbose to sops")

	return cmd
}

func runEncrypt(ctx context.Context, o *opts.RootOpts, args []string, flags secrets.EncryptOptions) error {
	console := log.FromContext(ctx)

	files, err := targets(ctx, o, args, true)
	if err != nil {
		return err
	}
	if flags.Output != "" && len(files) != 1 {
		return errors.Errorf("--output needs exactly one file, got %d", len(files))
	}

	locator := o.Locator()
	for _, path := range files {
		file, err := locator.Read(ctx, path)
		if err != nil {
			console.FileResult(log.FileResult{Path: path, Status: log.StatusFailed, Detail: err.Error()})
			continue
		}
		if file.Contents.IsEncrypted() {
			console.FileResult(log.FileResult{Path: path, Status: log.StatusSkipped, Detail: "already encrypted"})
			continue
		}
		if flags.UnencryptedSuffix == "" && !document.HasSecrets(file.Contents) {
			console.FileResult(log.FileResult{Path: path, Status: log.StatusSkipped, Detail: "no secret keys"})
			continue
		}

		err = withSpinner(ctx, o, "encrypting "+path, func() error {
			_, err := o.Sops.Encrypt(ctx, path, flags)
			return err
		})
		console.FileResult(cryptResult(path, log.StatusEncrypted, err))

		if errors.Is(err, secrets.ErrSopsBinaryNotFound) || errors.Is(err, secrets.ErrInvalidArguments) {
			return err
		}
	}

	console.LogNewline()
	if n := console.Count(log.StatusSkipped); n > 0 {
		console.Infof("%d of %d files skipped", n, len(files))
	}

	if n := console.Failed(); n > 0 {
		return errors.Errorf("%d of %d files failed to encrypt", n, len(files))
	}
	return nil
}

// cryptResult maps a sops run onto a console line.
func cryptResult(path string, ok log.Status, err error) log.FileResult {
	if err == nil {
		return log.FileResult{Path: path, Status: ok}
	}

	var exitErr *secrets.ExitError
	if errors.As(err, &exitErr) {
		switch {
		case exitErr.AlreadyEncrypted():
			return log.FileResult{Path: path, Status: log.StatusSkipped, Detail: "already encrypted"}
		case exitErr.NotEncrypted():
			return log.FileResult{Path: path, Status: log.StatusSkipped, Detail: "not encrypted"}
		}
	}
	return log.FileResult{Path: path, Status: log.StatusFailed, Detail: err.Error()}
}

// targets returns args as given or, when empty, every config file under
// the root. The base config is left out when skipBase is set.
func targets(ctx context.Context, o *opts.RootOpts, args []string, skipBase bool) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	files, err := o.Locator().ConfigFiles(ctx)
	if err != nil {
		return nil, err
	}

	out := files[:0]
	for _, f := range files {
		if skipBase && filepath.Base(f) == filepath.Base(o.BaseConfig) {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.Errorf("no config files found under %s", o.ConfigRoot)
	}
	return out, nil
}

func keyTypeList() string {
	names := make([]string, len(secrets.KeyTypes))
	for i, k := range secrets.KeyTypes {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
