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
	_ "embed"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/pkg/document"
	"github.com/walteh/secretconf/pkg/locate"
	"github.com/walteh/secretconf/pkg/schema"
	"github.com/walteh/secretconf/pkg/secrets"
	"github.com/walteh/secretconf/pkg/text"
	"github.com/walteh/secretconf/pkg/typegen"
)

const (
	DefaultConfigRoot     = "config"
	DefaultRuntimeEnvName = "NODE_ENV"
	DefaultBaseConfig     = "base.yml"
)

// DefaultDevEnvironments are the environments type generation runs in.
var DefaultDevEnvironments = []string{"development", "dev", "local"}

//go:embed options.schema.json
var optionsSchema []byte

// 🔧 TypesOptions enables type generation.
type TypesOptions struct {
	RootTypeName string
	FilePath     string
}

// ⚙️ Options configures a Loader. Zero values take the package defaults.
type Options struct {
	ConfigRoot          string
	RuntimeEnvName      string
	SubstitutionPattern string
	BaseConfig          string

	// Types is nil when type generation is disabled.
	Types           *TypesOptions
	DevEnvironments []string

	Lookup    text.LookupFunc
	FS        locate.FileSystem
	Decrypter secrets.Decrypter
	Compiler  typegen.Compiler
}

func (o Options) withDefaults() Options {
	if o.ConfigRoot == "" {
		o.ConfigRoot = DefaultConfigRoot
	}
	if o.RuntimeEnvName == "" {
		o.RuntimeEnvName = DefaultRuntimeEnvName
	}
	if o.SubstitutionPattern == "" {
		o.SubstitutionPattern = text.DefaultPattern
	}
	if o.BaseConfig == "" {
		o.BaseConfig = DefaultBaseConfig
	}
	if o.DevEnvironments == nil {
		o.DevEnvironments = DefaultDevEnvironments
	}
	if o.Types != nil {
		types := *o.Types
		if types.RootTypeName == "" {
			types.RootTypeName = typegen.DefaultRootTypeName
		}
		if types.FilePath == "" {
			types.FilePath = typegen.DefaultFilePath
		}
		o.Types = &types
	}
	if o.Lookup == nil {
		o.Lookup = text.OSLookup()
	}
	if o.Decrypter == nil {
		o.Decrypter = secrets.New(nil)
	}
	return o
}

func (o Options) document() document.Document {
	dev := make([]any, len(o.DevEnvironments))
	for i, e := range o.DevEnvironments {
		dev[i] = e
	}

	doc := document.Document{
		"configRoot":          o.ConfigRoot,
		"runtimeEnvName":      o.RuntimeEnvName,
		"substitutionPattern": o.SubstitutionPattern,
		"baseConfig":          o.BaseConfig,
		"devEnvironments":     dev,
		"types":               false,
	}
	if o.Types != nil {
		doc["types"] = map[string]any{
			"rootTypeName": o.Types.RootTypeName,
			"filePath":     o.Types.FilePath,
		}
	}
	return doc
}

// validate checks the defaulted options against the embedded options schema.
func (o Options) validate(ctx context.Context) error {
	meta, err := document.Parse(ctx, "options.schema.json", optionsSchema)
	if err != nil {
		return errors.Errorf("loading options schema: %w", err)
	}

	v, err := schema.CompileStrict(meta)
	if err != nil {
		return errors.Errorf("compiling options schema: %w", err)
	}

	if _, err := v.Validate(ctx, o.document()); err != nil {
		return errors.Errorf("%w: %s", ErrInvalidOptions, err.Error())
	}
	return nil
}
