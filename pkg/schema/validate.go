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

package schema

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/pkg/document"
)

var (
	ErrNoSchemaFound          = errors.Base("no schema found")
	ErrSchemaValidationFailed = errors.Base("schema validation failed")
	ErrInvalidSchema          = errors.Base("invalid schema")
)

const resourceURL = "schema.json"

// ✅ Validator checks hydrated configs against a compiled schema.
type Validator struct {
	raw      document.Document
	compiled *jsonschema.Schema
}

// Compile augments raw with the runtimeEnv property and compiles it.
func Compile(ctx context.Context, raw document.Document) (*Validator, error) {
	if raw == nil {
		return nil, errors.WithStack(ErrNoSchemaFound)
	}
	augmented := Augment(raw)

	compiled, err := compile(augmented)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Int("properties", len(properties(augmented))).Msg("compiled schema")

	return &Validator{raw: augmented, compiled: compiled}, nil
}

// CompileStrict compiles raw exactly as given.
func CompileStrict(raw document.Document) (*Validator, error) {
	if raw == nil {
		return nil, errors.WithStack(ErrNoSchemaFound)
	}
	compiled, err := compile(raw)
	if err != nil {
		return nil, err
	}
	return &Validator{raw: raw, compiled: compiled}, nil
}

func compile(raw document.Document) (*jsonschema.Schema, error) {
	data, err := raw.JSON()
	if err != nil {
		return nil, errors.Errorf("%w: %s", ErrInvalidSchema, err.Error())
	}

	c := jsonschema.NewCompiler()
	c.ExtractAnnotations = true
	if err := c.AddResource(resourceURL, bytes.NewReader(data)); err != nil {
		return nil, errors.Errorf("%w: %s", ErrInvalidSchema, err.Error())
	}

	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, errors.Errorf("%w: %s", ErrInvalidSchema, err.Error())
	}
	return compiled, nil
}

// Document returns the schema the validator was compiled from.
func (v *Validator) Document() document.Document {
	return v.raw
}

// Validate fills schema defaults into a copy of doc and checks the result.
// Every violation is reported in one multi-line error.
func (v *Validator) Validate(ctx context.Context, doc document.Document) (document.Document, error) {
	out := v.ApplyDefaults(doc)

	err := v.compiled.Validate(map[string]any(out))
	if err == nil {
		return out, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, errors.Errorf("%w: %s", ErrSchemaValidationFailed, err.Error())
	}

	violations := Violations(ve)
	zerolog.Ctx(ctx).Debug().Strs("violations", violations).Msg("config failed schema validation")

	return nil, errors.Errorf("%w:\n%s", ErrSchemaValidationFailed, strings.Join(violations, "\n"))
}

// Validate compiles schema and validates doc against it in one step.
func Validate(ctx context.Context, schema, doc document.Document) (document.Document, error) {
	v, err := Compile(ctx, schema)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, doc)
}

// Violations flattens a validation error into one line per failing keyword.
func Violations(ve *jsonschema.ValidationError) []string {
	var out []string
	seen := map[string]bool{}

	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		line := fmt.Sprintf("  - %s: %s", loc, e.Message)
		if !seen[line] {
			seen[line] = true
			out = append(out, line)
		}
	}
	walk(ve)

	return out
}
