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

package binary

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📦 Result is what a finished subprocess left behind.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports a zero exit status.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// 🔌 Runner executes a resolved binary.
type Runner interface {
	// Run blocks until the process exits. A non-zero exit status is not an
	// error; it is reported in Result.ExitCode. err is only set when the
	// process could not be started.
	Run(ctx context.Context, path string, args []string, stdin []byte) (*Result, error)
}

// ExecRunner runs binaries with os/exec. No timeout is applied.
type ExecRunner struct {
	Dir string
}

var _ Runner = ExecRunner{}

func (r ExecRunner) Run(ctx context.Context, path string, args []string, stdin []byte) (*Result, error) {
	zerolog.Ctx(ctx).Debug().Str("binary", path).Strs("args", args).Msg("running binary")

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, errors.Errorf("starting %s: %w", path, err)
	}

	return res, nil
}

// 🎯 Command binds a binary name to how it is found and how it is run.
type Command struct {
	Name      string
	Resolvers []Resolver
	Runner    Runner
}

// Run resolves the binary and executes it once.
func (c *Command) Run(ctx context.Context, args []string, stdin []byte) (*Result, error) {
	path, err := Resolve(ctx, c.Name, c.Resolvers...)
	if err != nil {
		return nil, err
	}

	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	return runner.Run(ctx, path, args, stdin)
}
