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

package document

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gitlab.com/tozd/go/errors"
)

const (
	// SopsKey is the top-level key sops writes its encryption metadata under.
	SopsKey = "sops"

	// RuntimeEnvKey carries the active environment name in a hydrated config.
	RuntimeEnvKey = "runtimeEnv"
)

// 📚 Document is a decoded configuration tree.
//
// Nested objects are always plain map[string]any, arrays are []any and
// numbers are int or float64, no matter which format they came from.
type Document map[string]any

// 📦 LoadedFile pairs a parsed document with the path it was read from.
type LoadedFile struct {
	Path     string
	Contents Document
}

// IsEncrypted reports whether the document carries sops metadata.
func (d Document) IsEncrypted() bool {
	if d == nil {
		return false
	}
	_, ok := d[SopsKey]
	return ok
}

// WithoutSops returns a copy of the document minus the sops metadata.
func (d Document) WithoutSops() Document {
	if d == nil {
		return nil
	}
	out := d.Clone()
	delete(out, SopsKey)
	return out
}

// Keys returns the top-level keys in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone deep copies the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

// JSON marshals the document into its canonical text form.
func (d Document) JSON() ([]byte, error) {
	return json.Marshal(map[string]any(d))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep copies maps and slices inside a decoded value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Document:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Normalize rewrites a decoded value so both parsers agree on shape:
// maps get string keys, json.Number becomes int or float64 and sized
// integers collapse to int.
func Normalize(v any) any {
	switch t := v.(type) {
	case Document:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Normalize(item)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case int64:
		return int(t)
	case int32:
		return int(t)
	case uint64:
		if t <= math.MaxInt {
			return int(t)
		}
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[k] = Normalize(item)
	}
	return out
}

// FromValue turns a decoded top-level value into a Document. A nil value
// yields a nil Document; anything other than an object is rejected.
func FromValue(v any) (Document, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := Normalize(v).(map[string]any)
	if !ok {
		return nil, errors.Errorf("top-level value must be an object, got %T", v)
	}
	return Document(m), nil
}
