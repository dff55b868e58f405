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

func strictSchema() document.Document {
	return document.Document{
		"title":                "Service",
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"name"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"port": map[string]any{"type": "integer", "default": 8080},
			"db": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"pool": map[string]any{"type": "integer", "default": 5},
				},
			},
		},
	}
}

func TestAugment(t *testing.T) {
	tests := []struct {
		name   string
		schema document.Document
		want   document.Document
	}{
		{
			name:   "creates_properties",
			schema: document.Document{"type": "object"},
			want: document.Document{
				"type":       "object",
				"properties": map[string]any{"runtimeEnv": map[string]any{"type": "string"}},
			},
		},
		{
			name: "keeps_existing_properties",
			schema: document.Document{
				"properties": map[string]any{"name": map[string]any{"type": "string"}},
			},
			want: document.Document{
				"properties": map[string]any{
					"name":       map[string]any{"type": "string"},
					"runtimeEnv": map[string]any{"type": "string"},
				},
			},
		},
		{
			name: "replaces_declared_runtime_env",
			schema: document.Document{
				"properties": map[string]any{"runtimeEnv": map[string]any{"type": "number"}},
			},
			want: document.Document{
				"properties": map[string]any{"runtimeEnv": map[string]any{"type": "string"}},
			},
		},
		{
			name:   "nil_schema",
			schema: nil,
			want: document.Document{
				"properties": map[string]any{"runtimeEnv": map[string]any{"type": "string"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Augment(tt.schema))
		})
	}
}

func TestAugment_DoesNotModifyInput(t *testing.T) {
	in := document.Document{"properties": map[string]any{}}
	out := Augment(in)
	assert.Empty(t, in["properties"])

	again := Augment(out)
	assert.Len(t, again["properties"], 1)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		schema    document.Document
		doc       document.Document
		want      document.Document
		wantErr   error
		errSubstr []string
	}{
		{
			name:   "strict_schema_accepts_runtime_env",
			schema: strictSchema(),
			doc:    document.Document{"name": "svc", "port": 9000, "runtimeEnv": "development"},
			want:   document.Document{"name": "svc", "port": 9000, "runtimeEnv": "development"},
		},
		{
			name:   "defaults_are_applied",
			schema: strictSchema(),
			doc:    document.Document{"name": "svc", "db": map[string]any{}, "runtimeEnv": "test"},
			want: document.Document{
				"name":       "svc",
				"port":       8080,
				"db":         map[string]any{"pool": 5},
				"runtimeEnv": "test",
			},
		},
		{
			name:      "all_violations_reported",
			schema:    strictSchema(),
			doc:       document.Document{"port": "nope", "extra": true, "runtimeEnv": "test"},
			wantErr:   ErrSchemaValidationFailed,
			errSubstr: []string{"missing properties", "name", "/port", "extra"},
		},
		{
			name:    "runtime_env_must_be_string",
			schema:  document.Document{"type": "object"},
			doc:     document.Document{"runtimeEnv": 3},
			wantErr: ErrSchemaValidationFailed,
		},
		{
			name:    "nil_schema",
			schema:  nil,
			doc:     document.Document{},
			wantErr: ErrNoSchemaFound,
		},
		{
			name:    "broken_schema",
			schema:  document.Document{"type": 12},
			doc:     document.Document{},
			wantErr: ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(testContext(), tt.schema, tt.doc)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				for _, s := range tt.errSubstr {
					assert.Contains(t, err.Error(), s)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_DoesNotModifyInput(t *testing.T) {
	doc := document.Document{"name": "svc"}
	_, err := Validate(testContext(), strictSchema(), doc)
	require.NoError(t, err)
	assert.Equal(t, document.Document{"name": "svc"}, doc)
}

func TestCompileStrict(t *testing.T) {
	v, err := CompileStrict(document.Document{"type": "object", "additionalProperties": false})
	require.NoError(t, err)

	_, err = v.Validate(testContext(), document.Document{"runtimeEnv": "dev"})
	assert.ErrorIs(t, err, ErrSchemaValidationFailed)
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name   string
		schema document.Document
		doc    document.Document
		want   document.Document
	}{
		{
			name: "array_items",
			schema: document.Document{
				"properties": map[string]any{
					"workers": map[string]any{
						"type": "array",
						"items": map[string]any{
							"properties": map[string]any{
								"retries": map[string]any{"default": 3},
							},
						},
					},
				},
			},
			doc: document.Document{
				"workers": []any{map[string]any{"name": "a"}, map[string]any{"retries": 1}},
			},
			want: document.Document{
				"workers": []any{
					map[string]any{"name": "a", "retries": 3},
					map[string]any{"retries": 1},
				},
			},
		},
		{
			name: "ref_into_definitions",
			schema: document.Document{
				"definitions": map[string]any{
					"db": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"port": map[string]any{"type": "integer", "default": 5432},
						},
					},
				},
				"properties": map[string]any{
					"db": map[string]any{"$ref": "#/definitions/db"},
				},
			},
			doc:  document.Document{"db": map[string]any{}},
			want: document.Document{"db": map[string]any{"port": 5432}},
		},
		{
			name: "default_declared_behind_ref",
			schema: document.Document{
				"$defs": map[string]any{
					"level": map[string]any{"type": "string", "default": "info"},
				},
				"properties": map[string]any{
					"logLevel": map[string]any{"$ref": "#/$defs/level"},
				},
			},
			doc:  document.Document{},
			want: document.Document{"logLevel": "info"},
		},
		{
			name: "all_of_branches",
			schema: document.Document{
				"allOf": []any{
					map[string]any{"properties": map[string]any{"a": map[string]any{"default": 1}}},
					map[string]any{"properties": map[string]any{"b": map[string]any{"default": false}}},
				},
			},
			doc:  document.Document{"a": 7},
			want: document.Document{"a": 7, "b": false},
		},
		{
			name: "present_values_win",
			schema: document.Document{
				"properties": map[string]any{
					"port": map[string]any{"default": 8080},
				},
			},
			doc:  document.Document{"port": 0},
			want: document.Document{"port": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := CompileStrict(tt.schema)
			require.NoError(t, err)

			assert.Equal(t, tt.want, v.ApplyDefaults(tt.doc))
		})
	}
}

func TestValidate_DefaultSatisfiesRequiredBehindRef(t *testing.T) {
	schema := document.Document{
		"definitions": map[string]any{
			"db": map[string]any{
				"type":     "object",
				"required": []any{"port"},
				"properties": map[string]any{
					"port": map[string]any{"type": "integer", "default": 5432},
				},
			},
		},
		"properties": map[string]any{
			"db": map[string]any{"$ref": "#/definitions/db"},
		},
	}

	got, err := Validate(testContext(), schema, document.Document{"db": map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, document.Document{"db": map[string]any{"port": 5432}}, got)
}
