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

package typegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/pkg/binary"
	"github.com/walteh/secretconf/pkg/document"
)

const (
	DefaultRootTypeName = "Config"
	DefaultFilePath     = "config.d.ts"

	// DefaultCompilerBinary is json-schema-to-typescript's CLI.
	DefaultCompilerBinary = "json2ts"
)

var ErrTypeGenerationFailed = errors.Base("type generation failed")

// 🔧 Options controls where declarations go and what the root type is called.
type Options struct {
	RootTypeName string
	FilePath     string
}

func (o Options) withDefaults() Options {
	if o.RootTypeName == "" {
		o.RootTypeName = DefaultRootTypeName
	}
	if o.FilePath == "" {
		o.FilePath = DefaultFilePath
	}
	return o
}

// 🔌 Compiler turns a JSON schema into type declarations.
type Compiler interface {
	Compile(ctx context.Context, schema document.Document) (string, error)
}

// ExternalCompiler pipes the schema to an external schema-to-type binary on
// stdin and reads declarations from stdout.
type ExternalCompiler struct {
	cmd  binary.Command
	args []string
}

var _ Compiler = (*ExternalCompiler)(nil)

// NewExternalCompiler runs name (DefaultCompilerBinary when empty).
func NewExternalCompiler(name string, runner binary.Runner, resolvers ...binary.Resolver) *ExternalCompiler {
	if name == "" {
		name = DefaultCompilerBinary
	}
	if len(resolvers) == 0 {
		resolvers = binary.DefaultResolvers()
	}
	return &ExternalCompiler{
		cmd:  binary.Command{Name: name, Resolvers: resolvers, Runner: runner},
		args: []string{"--bannerComment", ""},
	}
}

func (c *ExternalCompiler) Compile(ctx context.Context, schema document.Document) (string, error) {
	data, err := schema.JSON()
	if err != nil {
		return "", errors.Errorf("serializing schema: %w", err)
	}

	res, err := c.cmd.Run(ctx, c.args, data)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", errors.Errorf("%s exited with status %d: %s", c.cmd.Name, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	return string(res.Stdout), nil
}

// 🏭 Generator writes the declaration file for a config root.
type Generator struct {
	root     string
	opts     Options
	compiler Compiler
}

// New builds a Generator writing under root. A nil compiler means
// NewExternalCompiler with defaults.
func New(root string, opts Options, compiler Compiler) *Generator {
	if compiler == nil {
		compiler = NewExternalCompiler("", nil)
	}
	return &Generator{root: root, opts: opts.withDefaults(), compiler: compiler}
}

// Path is where Generate writes.
func (g *Generator) Path() string {
	return filepath.Join(g.root, g.opts.FilePath)
}

// 🎯 Generate compiles schema and writes the declarations file. It returns
// the written path.
func (g *Generator) Generate(ctx context.Context, schema document.Document) (string, error) {
	titleType, err := RootName(schema, g.opts.RootTypeName)
	if err != nil {
		return "", err
	}

	decls, err := g.compiler.Compile(ctx, schema)
	if err != nil {
		return "", errors.Errorf("%w: %s", ErrTypeGenerationFailed, err.Error())
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(decls, "\n"))
	fmt.Fprintf(&b, "\n\nexport interface %s extends %s {\n  %s: string;\n}\n", g.opts.RootTypeName, titleType, document.RuntimeEnvKey)

	path := g.Path()
	if err := writeFile(path, []byte(b.String())); err != nil {
		return "", errors.Errorf("%w: %s", ErrTypeGenerationFailed, err.Error())
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Str("type", g.opts.RootTypeName).Msg("wrote type declarations")

	return path, nil
}

// ⚡ Dispatch runs Generate in the background. The returned channel yields
// exactly one value (nil on success) and is then closed. Failures are also
// logged at warn level; nothing waits on them.
func (g *Generator) Dispatch(ctx context.Context, schema document.Document) <-chan error {
	done := make(chan error, 1)
	schema = schema.Clone()

	go func() {
		defer close(done)

		_, err := g.Generate(ctx, schema)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("type generation failed")
		}
		done <- err
	}()

	return done
}

// RootName derives the interface name json2ts gives the schema from its
// title. The title is required and must not collide with rootType.
func RootName(schema document.Document, rootType string) (string, error) {
	title, _ := schema["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.Errorf("%w: schema has no title", ErrTypeGenerationFailed)
	}
	if strings.EqualFold(title, "config") {
		return "", errors.Errorf("%w: schema title %q is reserved", ErrTypeGenerationFailed, title)
	}

	name := PascalCase(title)
	if name == "" {
		return "", errors.Errorf("%w: schema title %q has no usable characters", ErrTypeGenerationFailed, title)
	}
	if rootType == "" {
		rootType = DefaultRootTypeName
	}
	if name == rootType {
		return "", errors.Errorf("%w: schema title %q collides with root type %s", ErrTypeGenerationFailed, title, rootType)
	}
	return name, nil
}

// PascalCase joins the alphanumeric runs of s, upper-casing the first rune
// of each. A leading digit gets an underscore prefix.
func PascalCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}

	out := b.String()
	if r := []rune(out); len(r) > 0 && unicode.IsDigit(r[0]) {
		out = "_" + out
	}
	return out
}

// writeFile replaces path through a temp file so readers never see a
// partial declaration file.
func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0o644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}
