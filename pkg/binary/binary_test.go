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
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755), "writing script should succeed")
	return path
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
}

type fixedResolver struct {
	path string
	err  error
}

func (f fixedResolver) Resolve(name string) (string, error) {
	return f.path, f.err
}

func TestResolve(t *testing.T) {
	ctx := zerolog.New(os.Stderr).WithContext(context.Background())
	notFound := errors.Errorf("%w: nope", ErrBinaryNotFound)

	tests := []struct {
		name      string
		resolvers []Resolver
		want      string
		wantErr   error
	}{
		{
			name:      "first_hit_wins",
			resolvers: []Resolver{fixedResolver{path: "/usr/bin/sops"}, fixedResolver{path: "./sops"}},
			want:      "/usr/bin/sops",
		},
		{
			name:      "falls_back_on_not_found",
			resolvers: []Resolver{fixedResolver{err: notFound}, fixedResolver{path: "./sops"}},
			want:      "./sops",
		},
		{
			name:      "none_found",
			resolvers: []Resolver{fixedResolver{err: notFound}, fixedResolver{err: notFound}},
			wantErr:   ErrBinaryNotFound,
		},
		{
			name:      "other_errors_stop_the_walk",
			resolvers: []Resolver{fixedResolver{err: errors.New("permission denied")}, fixedResolver{path: "./sops"}},
			wantErr:   errors.New("permission denied"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(ctx, "sops", tt.resolvers...)
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, ErrBinaryNotFound) {
					assert.True(t, errors.Is(err, ErrBinaryNotFound))
				} else {
					assert.False(t, errors.Is(err, ErrBinaryNotFound))
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkdirResolver(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	script := writeScript(t, dir, "sops", "exit 0")

	got, err := WorkdirResolver{Dir: dir}.Resolve("sops")
	require.NoError(t, err)
	assert.Equal(t, script, got)

	_, err = WorkdirResolver{Dir: dir}.Resolve("json2ts")
	assert.True(t, errors.Is(err, ErrBinaryNotFound))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain"), []byte("x"), 0644))
	_, err = WorkdirResolver{Dir: dir}.Resolve("plain")
	assert.True(t, errors.Is(err, ErrBinaryNotFound), "non-executable file should not resolve")
}

func TestPathResolver(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	script := writeScript(t, dir, "fake-sops", "exit 0")
	t.Setenv("PATH", dir)

	got, err := PathResolver{}.Resolve("fake-sops")
	require.NoError(t, err)
	assert.Equal(t, script, got)

	_, err = PathResolver{}.Resolve("definitely-not-installed")
	assert.True(t, errors.Is(err, ErrBinaryNotFound))
}

func TestExecRunner(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	ctx := context.Background()

	t.Run("captures_stdout_and_stdin", func(t *testing.T) {
		script := writeScript(t, dir, "echoer", `echo "args:$*"; cat`)
		res, err := ExecRunner{}.Run(ctx, script, []string{"--decrypt", "file.yaml"}, []byte("from-stdin"))
		require.NoError(t, err)
		assert.True(t, res.Success())
		assert.Equal(t, "args:--decrypt file.yaml\nfrom-stdin", string(res.Stdout))
	})

	t.Run("non_zero_exit_is_not_an_error", func(t *testing.T) {
		script := writeScript(t, dir, "failer", `echo "could not decrypt" >&2; exit 128`)
		res, err := ExecRunner{}.Run(ctx, script, nil, nil)
		require.NoError(t, err)
		assert.False(t, res.Success())
		assert.Equal(t, 128, res.ExitCode)
		assert.Equal(t, "could not decrypt\n", string(res.Stderr))
	})

	t.Run("missing_binary_is_an_error", func(t *testing.T) {
		_, err := ExecRunner{}.Run(ctx, filepath.Join(dir, "missing"), nil, nil)
		require.Error(t, err)
	})
}

func TestCommand_Run(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "sops", `echo "ok"`)

	cmd := &Command{
		Name:      "sops",
		Resolvers: []Resolver{fixedResolver{err: errors.Errorf("%w: not on PATH", ErrBinaryNotFound)}, WorkdirResolver{Dir: dir}},
	}

	res, err := cmd.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(res.Stdout))
}
