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

package opts

import (
	"github.com/walteh/secretconf/pkg/config"
	"github.com/walteh/secretconf/pkg/locate"
	"github.com/walteh/secretconf/pkg/log"
	"github.com/walteh/secretconf/pkg/secrets"
	"github.com/walteh/secretconf/pkg/text"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigRoot     string
	RuntimeEnvName string
	BaseConfig     string
	Debug          bool
	NoSpinner      bool

	Console *log.Logger
	Sops    *secrets.Sops
	FS      locate.FileSystem
	Lookup  text.LookupFunc
}

// Locator returns a locator for the configured root.
func (o *RootOpts) Locator() *locate.Locator {
	return locate.New(o.ConfigRoot, o.FS)
}

// LoaderOptions maps the flags onto config.Options. A non-empty env
// replaces whatever the runtime environment variable holds.
func (o *RootOpts) LoaderOptions(env string) config.Options {
	lookup := o.Lookup
	if lookup == nil {
		lookup = text.OSLookup()
	}

	if env != "" {
		name := o.RuntimeEnvName
		if name == "" {
			name = config.DefaultRuntimeEnvName
		}
		inner := lookup
		lookup = func(key string) (string, bool) {
			if key == name {
				return env, true
			}
			return inner(key)
		}
	}

	out := config.Options{
		ConfigRoot:     o.ConfigRoot,
		RuntimeEnvName: o.RuntimeEnvName,
		BaseConfig:     o.BaseConfig,
		Lookup:         lookup,
		FS:             o.FS,
	}
	if o.Sops != nil {
		out.Decrypter = o.Sops
	}
	return out
}
