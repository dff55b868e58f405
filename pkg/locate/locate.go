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

package locate

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/pkg/document"
)

var (
	ErrFileNotFound            = errors.Base("file not found")
	ErrNoConfigFileFound       = errors.Base("no config file found")
	ErrDuplicateConfigFiles    = errors.Base("duplicate config files")
	ErrBaseConfigNameCollision = errors.Base("base config name collides with environment config")
)

const (
	// SchemaFile is the only file name looked up as the schema.
	SchemaFile = "schema.json"

	extensionPattern = "{json,yaml,yml}"
	schemaPattern    = "schema." + extensionPattern
)

// Extensions lists the config file extensions the locator resolves.
var Extensions = []string{".json", ".yaml", ".yml"}

// 🔍 Locator resolves configuration files under a single root directory.
type Locator struct {
	root string
	fs   FileSystem
}

// New returns a locator rooted at root. A nil fsys means the OS file system.
func New(root string, fsys FileSystem) *Locator {
	if fsys == nil {
		fsys = OSFS{}
	}
	return &Locator{root: root, fs: fsys}
}

// Root returns the directory the locator searches.
func (l *Locator) Root() string {
	return l.root
}

// EnvPattern is the glob an environment name is resolved with.
func EnvPattern(env string) string {
	return escapeMeta(env) + "." + extensionPattern
}

// ByEnv resolves the one config file for an environment.
func (l *Locator) ByEnv(ctx context.Context, env string) (*document.LoadedFile, error) {
	pattern := EnvPattern(env)
	display := filepath.Join(l.root, env+"."+extensionPattern)

	matches, err := l.fs.Glob(l.root, pattern)
	if err != nil {
		return nil, errors.Errorf("searching %s: %w", display, err)
	}

	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		if doublestar.MatchUnvalidated(schemaPattern, filepath.Base(m)) {
			continue
		}
		candidates = append(candidates, m)
	}
	sort.Strings(candidates)

	if len(candidates) == 0 {
		return nil, errors.Errorf("%w: expected a file matching %s", ErrNoConfigFileFound, display)
	}
	if len(candidates) > 1 {
		return nil, errors.Errorf("%w: environment %q matches more than one file: %s", ErrDuplicateConfigFiles, env, strings.Join(candidates, ", "))
	}

	zerolog.Ctx(ctx).Debug().Str("env", env).Str("path", candidates[0]).Msg("located config file")

	return l.read(ctx, candidates[0])
}

// ByPath loads an explicitly named file. Relative paths resolve against
// the working directory.
func (l *Locator) ByPath(ctx context.Context, path string) (*document.LoadedFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", path, err)
	}

	if _, err := l.fs.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Errorf("%w: %s", ErrFileNotFound, abs)
		}
		return nil, errors.Errorf("checking %s: %w", abs, err)
	}

	return l.read(ctx, abs)
}

// SchemaPath is where Schema looks.
func (l *Locator) SchemaPath() string {
	return filepath.Join(l.root, SchemaFile)
}

// Schema looks for {root}/schema.json. found is false when the file does
// not exist; that is not an error.
func (l *Locator) Schema(ctx context.Context) (schema document.Document, found bool, err error) {
	path := l.SchemaPath()

	ok, err := l.exists(path)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("path", path).Bool("found", false).Msg("schema lookup")
		return nil, false, nil
	}

	file, err := l.read(ctx, path)
	if err != nil {
		return nil, true, err
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Bool("found", true).Msg("schema lookup")
	return file.Contents, true, nil
}

// CheckBaseName rejects a base config name that would be picked up as the
// environment's own file. It does no I/O.
func CheckBaseName(env, baseName string) error {
	if baseName == "" {
		return nil
	}
	clean := filepath.Base(baseName)
	for _, ext := range Extensions {
		if clean == env+ext {
			return errors.Errorf("%w: base config %q is the config file for environment %q", ErrBaseConfigNameCollision, baseName, env)
		}
	}
	return nil
}

// Base loads {root}/{baseName}. A missing file yields an empty document.
// envPath is the already resolved environment file; naming the same file
// as the base is rejected before the base is touched.
func (l *Locator) Base(ctx context.Context, baseName, envPath string) (*document.LoadedFile, error) {
	path := filepath.Join(l.root, baseName)

	if filepath.Base(path) == filepath.Base(envPath) {
		return nil, errors.Errorf("%w: base config %q is also the environment config %s", ErrBaseConfigNameCollision, baseName, envPath)
	}

	ok, err := l.exists(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no base config")
		return &document.LoadedFile{Path: path, Contents: document.Document{}}, nil
	}

	file, err := l.read(ctx, path)
	if err != nil {
		return nil, err
	}
	if file.Contents == nil {
		file.Contents = document.Document{}
	}
	return file, nil
}

// ConfigFiles lists every config file under the root, the schema excluded.
func (l *Locator) ConfigFiles(ctx context.Context) ([]string, error) {
	matches, err := l.fs.Glob(l.root, "*."+extensionPattern)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", l.root, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if doublestar.MatchUnvalidated(schemaPattern, filepath.Base(m)) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// Read loads and parses any file through the locator's file system.
func (l *Locator) Read(ctx context.Context, path string) (*document.LoadedFile, error) {
	return l.read(ctx, path)
}

func (l *Locator) read(ctx context.Context, path string) (*document.LoadedFile, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, errors.Errorf("reading %s: %w", path, err)
	}

	doc, err := document.Parse(ctx, path, data)
	if err != nil {
		return nil, err
	}

	return &document.LoadedFile{Path: path, Contents: doc}, nil
}

func (l *Locator) exists(path string) (bool, error) {
	if _, err := l.fs.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errors.Errorf("checking %s: %w", path, err)
	}
	return true, nil
}

func escapeMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\', ',':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
