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

package config

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/pkg/document"
	"github.com/walteh/secretconf/pkg/locate"
	"github.com/walteh/secretconf/pkg/schema"
	"github.com/walteh/secretconf/pkg/text"
	"github.com/walteh/secretconf/pkg/typegen"
)

var (
	ErrInvalidOptions     = errors.Base("invalid options")
	ErrRuntimeEnvNotSet   = errors.Base("runtime environment not set")
	ErrSecretInBaseConfig = errors.Base("secret in base config")
)

type schemaState int

const (
	schemaNotLooked schemaState = iota
	schemaAbsent
	schemaPresent
)

// 🔄 Loader resolves the configuration for one runtime environment.
//
// Everything it loads is memoized for the lifetime of the Loader: the env
// file is read and decrypted at most once, and the schema is looked up at
// most once.
type Loader struct {
	opts        Options
	env         string
	locator     *locate.Locator
	substitutor *text.Substitutor
	types       *typegen.Generator

	mu sync.Mutex

	schemaState schemaState
	schema      document.Document
	validator   *schema.Validator

	config document.Document
	files  map[string]document.Document

	typesStarted  bool
	typesFinished chan struct{}
	typesErr      error
}

// 🏗️ New validates opts, resolves the runtime environment, looks up the
// schema and loads the configuration. Any failure is returned here so a
// broken configuration stops the process at startup.
func New(ctx context.Context, opts Options) (*Loader, error) {
	l, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	if _, err := l.Load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Open is New without the initial load.
func Open(ctx context.Context, opts Options) (*Loader, error) {
	opts = opts.withDefaults()

	if err := opts.validate(ctx); err != nil {
		return nil, err
	}

	substitutor, err := text.NewSubstitutor(opts.SubstitutionPattern, opts.Lookup)
	if err != nil {
		return nil, errors.Errorf("%w: %s", ErrInvalidOptions, err.Error())
	}

	env, ok := opts.Lookup(opts.RuntimeEnvName)
	if !ok || env == "" {
		return nil, errors.Errorf("%w: %s must name the environment to load", ErrRuntimeEnvNotSet, opts.RuntimeEnvName)
	}

	l := &Loader{
		opts:        opts,
		env:         env,
		locator:     locate.New(opts.ConfigRoot, opts.FS),
		substitutor: substitutor,
		files:       map[string]document.Document{},
	}

	if opts.Types != nil {
		l.types = typegen.New(opts.ConfigRoot, typegen.Options{
			RootTypeName: opts.Types.RootTypeName,
			FilePath:     opts.Types.FilePath,
		}, opts.Compiler)
	}

	zerolog.Ctx(ctx).Debug().
		Str("root", opts.ConfigRoot).
		Str("env", env).
		Str("env_var", opts.RuntimeEnvName).
		Msg("config loader ready")

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.lookupSchema(ctx); err != nil {
		return nil, err
	}

	return l, nil
}

// Env is the active runtime environment.
func (l *Loader) Env() string {
	return l.env
}

// Root is the config root directory.
func (l *Loader) Root() string {
	return l.locator.Root()
}

// Schema returns the schema found under the config root. ok is false when
// there is none.
func (l *Loader) Schema() (document.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.schemaState != schemaPresent {
		return nil, false
	}
	return l.schema.Clone(), true
}

// GetConfig is Load.
func (l *Loader) GetConfig(ctx context.Context) (document.Document, error) {
	return l.Load(ctx)
}

// 🎯 Load returns the hydrated configuration for the active environment.
// Only the first successful call touches the file system or the decrypter.
func (l *Loader) Load(ctx context.Context) (document.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.config != nil {
		return l.config.Clone(), nil
	}

	if err := locate.CheckBaseName(l.env, l.opts.BaseConfig); err != nil {
		return nil, err
	}

	file, err := l.locator.ByEnv(ctx, l.env)
	if err != nil {
		return nil, err
	}

	cfg, err := l.resolve(ctx, file)
	if err != nil {
		return nil, err
	}

	l.config = cfg
	return cfg.Clone(), nil
}

// LoadFile runs the pipeline against an explicit file instead of the
// environment's file. Results are memoized per absolute path.
func (l *Loader) LoadFile(ctx context.Context, path string) (document.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.locator.ByPath(ctx, path)
	if err != nil {
		return nil, err
	}

	if cfg, ok := l.files[file.Path]; ok {
		return cfg.Clone(), nil
	}

	cfg, err := l.resolve(ctx, file)
	if err != nil {
		return nil, err
	}

	l.files[file.Path] = cfg
	return cfg.Clone(), nil
}

// Validate loads the configuration and checks it against the schema. It
// fails with schema.ErrNoSchemaFound when the root has no schema.
func (l *Loader) Validate(ctx context.Context) (document.Document, error) {
	if err := l.requireSchema(); err != nil {
		return nil, err
	}
	return l.Load(ctx)
}

// ValidateFile is Validate for an explicit file.
func (l *Loader) ValidateFile(ctx context.Context, path string) (document.Document, error) {
	if err := l.requireSchema(); err != nil {
		return nil, err
	}
	return l.LoadFile(ctx, path)
}

// WaitTypes blocks until background type generation finishes and returns
// its error. It returns nil at once when nothing was dispatched.
func (l *Loader) WaitTypes(ctx context.Context) error {
	l.mu.Lock()
	finished := l.typesFinished
	l.mu.Unlock()

	if finished == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return errors.Errorf("waiting for type generation: %w", ctx.Err())
	case <-finished:
		return l.typesErr
	}
}

func (l *Loader) requireSchema() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.schemaState != schemaPresent {
		return errors.Errorf("%w: expected %s", schema.ErrNoSchemaFound, l.locator.SchemaPath())
	}
	return nil
}

// lookupSchema must be called with l.mu held.
func (l *Loader) lookupSchema(ctx context.Context) error {
	if l.schemaState != schemaNotLooked {
		return nil
	}

	raw, found, err := l.locator.Schema(ctx)
	if err != nil {
		return err
	}
	if !found {
		l.schemaState = schemaAbsent
		return nil
	}

	v, err := schema.Compile(ctx, raw)
	if err != nil {
		return err
	}

	l.schema = raw
	l.validator = v
	l.schemaState = schemaPresent
	return nil
}

// resolve must be called with l.mu held.
func (l *Loader) resolve(ctx context.Context, file *document.LoadedFile) (document.Document, error) {
	logger := zerolog.Ctx(ctx)

	base, err := l.locator.Base(ctx, l.opts.BaseConfig, file.Path)
	if err != nil {
		return nil, err
	}
	if keys := document.SecretKeys(base.Contents); len(keys) > 0 {
		return nil, errors.Errorf("%w: %s declares %s; secrets belong in an environment file", ErrSecretInBaseConfig, base.Path, strings.Join(keys, ", "))
	}

	merged := document.Merge(base.Contents, file.Contents)
	logger.Debug().Str("file", file.Path).Str("base", base.Path).Msg("merged base config")

	decrypted, err := l.opts.Decrypter.Decrypt(ctx, file.Path, merged)
	if err != nil {
		return nil, err
	}

	hydrated, err := text.Hydrate(ctx, l.substitutor, l.env, decrypted)
	if err != nil {
		return nil, err
	}

	if err := l.lookupSchema(ctx); err != nil {
		return nil, err
	}
	if l.schemaState == schemaPresent {
		hydrated, err = l.validator.Validate(ctx, hydrated)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("file", file.Path).Msg("config matches schema")
		l.dispatchTypes(ctx)
	}

	return hydrated, nil
}

// dispatchTypes must be called with l.mu held.
func (l *Loader) dispatchTypes(ctx context.Context) {
	if l.types == nil || l.typesStarted || !l.isDevEnv() {
		return
	}
	l.typesStarted = true

	done := l.types.Dispatch(context.WithoutCancel(ctx), l.schema)
	finished := make(chan struct{})
	l.typesFinished = finished

	go func() {
		l.typesErr = <-done
		close(finished)
	}()

	zerolog.Ctx(ctx).Debug().Str("path", l.types.Path()).Msg("type generation dispatched")
}

func (l *Loader) isDevEnv() bool {
	return slices.Contains(l.opts.DevEnvironments, l.env)
}
