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
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/secretconf/pkg/document"
)

func testContext() context.Context {
	return zerolog.New(os.Stderr).WithContext(context.Background())
}

func TestSubstitute(t *testing.T) {
	env := MapLookup(map[string]string{
		"SOME_ENV_VAR": "value123",
		"PORT":         "8080",
		"EMPTY":        "",
		"1LEADING":     "x",
		"QUOTED":       `a"b`,
	})

	tests := []struct {
		name    string
		doc     document.Document
		want    document.Document
		wantErr error
		errText string
	}{
		{
			name: "single_placeholder",
			doc:  document.Document{"f": "${SOME_ENV_VAR}"},
			want: document.Document{"f": "value123"},
		},
		{
			name: "nested_and_embedded",
			doc: document.Document{
				"db":    map[string]any{"url": "postgres://host:${PORT}/db"},
				"hosts": []any{"a:${PORT}", "b"},
				"n":     3,
			},
			want: document.Document{
				"db":    map[string]any{"url": "postgres://host:8080/db"},
				"hosts": []any{"a:8080", "b"},
				"n":     3,
			},
		},
		{
			name: "no_placeholders",
			doc:  document.Document{"a": 1.5, "b": true, "c": nil},
			want: document.Document{"a": 1.5, "b": true, "c": nil},
		},
		{
			name:    "unset_variable",
			doc:     document.Document{"f": "${MISSING_VAR}"},
			wantErr: ErrUndefinedEnvironmentVariable,
			errText: "MISSING_VAR",
		},
		{
			name:    "empty_variable_is_undefined",
			doc:     document.Document{"f": "${EMPTY}"},
			wantErr: ErrUndefinedEnvironmentVariable,
			errText: "EMPTY",
		},
		{
			name:    "empty_template",
			doc:     document.Document{"f": "${}"},
			wantErr: ErrEmptySubstitutionTemplate,
		},
		{
			name:    "special_characters",
			doc:     document.Document{"f": "${NO_$PECIAL}"},
			wantErr: ErrInvalidEnvVarName,
			errText: "NO_$PECIAL",
		},
		{
			name:    "grammar_checked_before_substitution",
			doc:     document.Document{"a": "${MISSING_VAR}", "b": "${BAD-NAME}"},
			wantErr: ErrInvalidEnvVarName,
		},
		{
			name:    "empty_template_checked_first",
			doc:     document.Document{"a": "${BAD-NAME}", "b": "${}"},
			wantErr: ErrEmptySubstitutionTemplate,
		},
		{
			name:    "leading_digit",
			doc:     document.Document{"f": "${1LEADING}"},
			wantErr: ErrEnvVarStartsWithDigit,
		},
		{
			name:    "value_breaks_syntax",
			doc:     document.Document{"f": "${QUOTED}"},
			wantErr: document.ErrMalformedFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSubstitutor("", env)
			require.NoError(t, err)

			got, err := s.Substitute(testContext(), tt.doc)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.errText != "" {
					assert.Contains(t, err.Error(), tt.errText)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubstitute_DoesNotModifyInput(t *testing.T) {
	s, err := NewSubstitutor("", MapLookup(map[string]string{"A": "1"}))
	require.NoError(t, err)

	in := document.Document{"f": "${A}"}
	_, err = s.Substitute(testContext(), in)
	require.NoError(t, err)
	assert.Equal(t, document.Document{"f": "${A}"}, in)
}

func TestSubstitute_NoRecursion(t *testing.T) {
	s, err := NewSubstitutor("", MapLookup(map[string]string{"A": "${B}", "B": "nope"}))
	require.NoError(t, err)

	out, err := s.Text(`{"f":"${A}"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"f":"${B}"}`, out)
}

func TestNewSubstitutor(t *testing.T) {
	_, err := NewSubstitutor(`[`, nil)
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = NewSubstitutor(`\$\w+`, nil)
	assert.ErrorIs(t, err, ErrInvalidPattern)

	s, err := NewSubstitutor(`%(\w+)%`, MapLookup(map[string]string{"HOME_DIR": "/home"}))
	require.NoError(t, err)
	out, err := s.Text("dir=%HOME_DIR%")
	require.NoError(t, err)
	assert.Equal(t, "dir=/home", out)
}

func TestOSLookup(t *testing.T) {
	t.Setenv("SECRETCONF_TEXT_TEST", "from-os")

	s, err := NewSubstitutor("", nil)
	require.NoError(t, err)

	got, err := s.Substitute(testContext(), document.Document{"f": "${SECRETCONF_TEXT_TEST}"})
	require.NoError(t, err)
	assert.Equal(t, document.Document{"f": "from-os"}, got)
}

func TestHydrate(t *testing.T) {
	s, err := NewSubstitutor("", MapLookup(map[string]string{"NAME": "svc"}))
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  document.Document
		want document.Document
	}{
		{
			name: "adds_runtime_env",
			doc:  document.Document{"name": "${NAME}"},
			want: document.Document{"name": "svc", "runtimeEnv": "staging"},
		},
		{
			name: "overwrites_existing_runtime_env",
			doc:  document.Document{"runtimeEnv": "production"},
			want: document.Document{"runtimeEnv": "staging"},
		},
		{
			name: "nil_document",
			doc:  nil,
			want: document.Document{"runtimeEnv": "staging"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Hydrate(testContext(), s, "staging", tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
