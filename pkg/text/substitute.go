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

package text

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/pkg/document"
)

// DefaultPattern matches ${IDENTIFIER}. Custom patterns must capture the
// variable name in their first group.
const DefaultPattern = `\$\{(\w+)\}`

var (
	ErrEmptySubstitutionTemplate    = errors.Base("empty substitution template")
	ErrInvalidEnvVarName            = errors.Base("invalid environment variable name")
	ErrUndefinedEnvironmentVariable = errors.Base("undefined environment variable")
	ErrEnvVarStartsWithDigit        = errors.Base("environment variable starts with a digit")
	ErrInvalidPattern               = errors.Base("invalid substitution pattern")
)

var (
	emptyPlaceholder = regexp.MustCompile(`\$\{\}`)
	anyPlaceholder   = regexp.MustCompile(`\$\{([^}]*)\}`)
	identifier       = regexp.MustCompile(`^\w+$`)
)

// LookupFunc resolves an environment variable. ok is false when it is unset.
type LookupFunc func(name string) (value string, ok bool)

// OSLookup reads the process environment.
func OSLookup() LookupFunc {
	return os.LookupEnv
}

// MapLookup serves variables from a fixed map.
func MapLookup(vars map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// 🔄 Substitutor replaces placeholders with environment values.
//
// Values are inserted verbatim into the serialized document: there is no
// escaping and no recursive expansion. A value that breaks the document
// syntax surfaces as document.ErrMalformedFile.
type Substitutor struct {
	pattern *regexp.Regexp
	lookup  LookupFunc
}

// NewSubstitutor compiles pattern (DefaultPattern when empty). A nil lookup
// reads the process environment.
func NewSubstitutor(pattern string, lookup LookupFunc) (*Substitutor, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Errorf("%w: %s", ErrInvalidPattern, err.Error())
	}
	if re.NumSubexp() < 1 {
		return nil, errors.Errorf("%w: %q has no capture group for the variable name", ErrInvalidPattern, pattern)
	}
	if lookup == nil {
		lookup = OSLookup()
	}
	return &Substitutor{pattern: re, lookup: lookup}, nil
}

// Substitute serializes doc, replaces every placeholder and decodes the
// result. doc is not modified.
func (s *Substitutor) Substitute(ctx context.Context, doc document.Document) (document.Document, error) {
	if doc == nil {
		return nil, nil
	}

	raw, err := doc.JSON()
	if err != nil {
		return nil, errors.Errorf("serializing config: %w", err)
	}

	replaced, err := s.Text(string(raw))
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(replaced)))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, errors.Errorf("%w: after substitution: %s", document.ErrMalformedFile, err.Error())
	}

	out, err := document.FromValue(v)
	if err != nil {
		return nil, errors.Errorf("%w: after substitution: %s", document.ErrMalformedFile, err.Error())
	}

	zerolog.Ctx(ctx).Trace().Int("bytes", len(replaced)).Msg("substituted config")

	return out, nil
}

// Text runs the grammar checks over the whole input and only then replaces
// placeholders, so no partial substitution is ever returned.
func (s *Substitutor) Text(input string) (string, error) {
	if emptyPlaceholder.MatchString(input) {
		return "", errors.WithStack(ErrEmptySubstitutionTemplate)
	}

	for _, m := range anyPlaceholder.FindAllStringSubmatch(input, -1) {
		if !identifier.MatchString(m[1]) {
			return "", errors.Errorf("%w: %q", ErrInvalidEnvVarName, m[0])
		}
	}

	var b strings.Builder
	last := 0
	for _, loc := range s.pattern.FindAllStringSubmatchIndex(input, -1) {
		if loc[2] < 0 {
			continue
		}
		name := input[loc[2]:loc[3]]

		value, err := s.resolve(name)
		if err != nil {
			return "", err
		}

		b.WriteString(input[last:loc[0]])
		b.WriteString(value)
		last = loc[1]
	}
	b.WriteString(input[last:])

	return b.String(), nil
}

func (s *Substitutor) resolve(name string) (string, error) {
	value, ok := s.lookup(name)
	if !ok || value == "" {
		return "", errors.Errorf("%w: %s", ErrUndefinedEnvironmentVariable, name)
	}
	if r := []rune(name); len(r) > 0 && unicode.IsDigit(r[0]) {
		return "", errors.Errorf("%w: %s", ErrEnvVarStartsWithDigit, name)
	}
	return value, nil
}
