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
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/walteh/secretconf/cmd/secretconf/opts"
)

// withSpinner shows a spinner on stderr while fn runs.
func withSpinner(ctx context.Context, o *opts.RootOpts, text string, fn func() error) error {
	if o.NoSpinner || o.Debug {
		return fn()
	}

	spinner, err := pterm.DefaultSpinner.
		WithRemoveWhenDone(true).
		WithWriter(os.Stderr).
		Start(text)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("starting spinner")
		return fn()
	}

	runErr := fn()
	if err := spinner.Stop(); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("stopping spinner")
	}
	return runErr
}
