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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/pkg/binary"
	"github.com/walteh/secretconf/pkg/document"
)

type mockCompiler struct {
	mock.Mock
}

func (m *mockCompiler) Compile(ctx context.Context, schema document.Document) (string, error) {
	ret := m.Called(schema)
	return ret.String(0), ret.Error(1)
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, path string, args []string, stdin []byte) (*binary.Result, error) {
	ret := m.Called(path, args, stdin)
	res, _ := ret.Get(0).(*binary.Result)
	return res, ret.Error(1)
}

type fixedResolver string

func (r fixedResolver) Resolve(name string) (string, error) {
	return string(r), nil
}

func testContext() context.Context {
	return zerolog.New(os.Stderr).WithContext(context.Background())
}

func TestPascalCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"service", "Service"},
		{"my service settings", "MyServiceSettings"},
		{"api-gateway_v2", "ApiGatewayV2"},
		{"alreadyCamel", "AlreadyCamel"},
		{"2fa settings", "_2faSettings"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, PascalCase(tt.in))
		})
	}
}

func TestRootName(t *testing.T) {
	tests := []struct {
		name     string
		schema   document.Document
		rootType string
		want     string
		wantErr  bool
	}{
		{name: "title", schema: document.Document{"title": "billing service"}, want: "BillingService"},
		{name: "missing_title", schema: document.Document{}, wantErr: true},
		{name: "non_string_title", schema: document.Document{"title": 4}, wantErr: true},
		{name: "reserved_title", schema: document.Document{"title": "CONFIG"}, wantErr: true},
		{name: "collides_with_custom_root", schema: document.Document{"title": "app settings"}, rootType: "AppSettings", wantErr: true},
		{name: "custom_root", schema: document.Document{"title": "app"}, rootType: "AppConfig", want: "App"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RootName(tt.schema, tt.rootType)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrTypeGenerationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	schema := document.Document{"title": "Service", "type": "object"}

	compiler := &mockCompiler{}
	compiler.On("Compile", schema).Return("export interface Service {\n  name: string;\n}\n", nil).Once()

	g := New(root, Options{FilePath: "types/config.d.ts"}, compiler)
	path, err := g.Generate(testContext(), schema)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "types", "config.d.ts"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export interface Service {\n  name: string;\n}\n\nexport interface Config extends Service {\n  runtimeEnv: string;\n}\n", string(data))

	compiler.AssertExpectations(t)
}

func TestGenerate_Failures(t *testing.T) {
	t.Run("compiler_error", func(t *testing.T) {
		compiler := &mockCompiler{}
		compiler.On("Compile", mock.Anything).Return("", errors.New("boom"))

		g := New(t.TempDir(), Options{}, compiler)
		_, err := g.Generate(testContext(), document.Document{"title": "svc"})
		assert.ErrorIs(t, err, ErrTypeGenerationFailed)
	})

	t.Run("no_title_skips_compiler", func(t *testing.T) {
		compiler := &mockCompiler{}

		g := New(t.TempDir(), Options{}, compiler)
		_, err := g.Generate(testContext(), document.Document{})
		assert.ErrorIs(t, err, ErrTypeGenerationFailed)
		compiler.AssertNotCalled(t, "Compile", mock.Anything)
	})
}

func TestDispatch(t *testing.T) {
	root := t.TempDir()
	schema := document.Document{"title": "svc"}

	compiler := &mockCompiler{}
	compiler.On("Compile", mock.Anything).Return("export interface Svc {}\n", nil)

	g := New(root, Options{}, compiler)
	done := g.Dispatch(testContext(), schema)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("type generation did not finish")
	}

	_, open := <-done
	assert.False(t, open, "channel should be closed after the result")
	assert.FileExists(t, filepath.Join(root, DefaultFilePath))
}

func TestDispatch_ReportsFailure(t *testing.T) {
	g := New(t.TempDir(), Options{}, &mockCompiler{})
	err := <-g.Dispatch(testContext(), document.Document{"title": "config"})
	assert.ErrorIs(t, err, ErrTypeGenerationFailed)
}

func TestExternalCompiler(t *testing.T) {
	schema := document.Document{"title": "svc"}
	stdin, err := schema.JSON()
	require.NoError(t, err)

	runner := &mockRunner{}
	runner.On("Run", "/bin/json2ts", []string{"--bannerComment", ""}, stdin).
		Return(&binary.Result{Stdout: []byte("export interface Svc {}\n")}, nil).Once()

	c := NewExternalCompiler("", runner, fixedResolver("/bin/json2ts"))
	out, err := c.Compile(testContext(), schema)
	require.NoError(t, err)
	assert.Equal(t, "export interface Svc {}\n", out)

	failing := &mockRunner{}
	failing.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(&binary.Result{ExitCode: 1, Stderr: []byte("bad schema")}, nil)

	_, err = NewExternalCompiler("", failing, fixedResolver("/bin/json2ts")).Compile(testContext(), schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad schema")
}
