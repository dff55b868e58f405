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
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var ErrBinaryNotFound = errors.Base("binary not found")

// 🔍 Resolver finds an executable by name.
type Resolver interface {
	// Resolve returns the path to run, or an error wrapping
	// ErrBinaryNotFound when this resolver cannot find it.
	Resolve(name string) (string, error)
}

// PathResolver looks the binary up on $PATH.
type PathResolver struct{}

func (PathResolver) Resolve(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Errorf("%w: %s not on PATH: %s", ErrBinaryNotFound, name, err.Error())
	}
	return path, nil
}

// WorkdirResolver looks for the binary sitting in a directory, the working
// directory when Dir is empty. It serves deployments that ship the binary
// next to the application instead of installing it.
type WorkdirResolver struct {
	Dir string
}

func (r WorkdirResolver) Resolve(name string) (string, error) {
	dir := r.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}

	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", errors.Errorf("%w: %s not in %s", ErrBinaryNotFound, name, dir)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0111 == 0 {
		return "", errors.Errorf("%w: %s is not executable", ErrBinaryNotFound, path)
	}
	return path, nil
}

// DefaultResolvers tries $PATH first, then the working directory.
func DefaultResolvers() []Resolver {
	return []Resolver{PathResolver{}, WorkdirResolver{}}
}

// Resolve walks resolvers in order and stops at the first hit. Only a
// not-found result moves on to the next resolver.
func Resolve(ctx context.Context, name string, resolvers ...Resolver) (string, error) {
	if len(resolvers) == 0 {
		resolvers = DefaultResolvers()
	}

	misses := make([]string, 0, len(resolvers))
	for _, r := range resolvers {
		path, err := r.Resolve(name)
		if err == nil {
			zerolog.Ctx(ctx).Debug().Str("binary", name).Str("path", path).Msg("resolved binary")
			return path, nil
		}
		if !errors.Is(err, ErrBinaryNotFound) {
			return "", err
		}
		misses = append(misses, err.Error())
	}

	return "", errors.Errorf("%w: %s (%s)", ErrBinaryNotFound, name, strings.Join(misses, "; "))
}
