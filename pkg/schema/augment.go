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
	"github.com/walteh/secretconf/pkg/document"
)

// Augment returns a copy of schema whose properties declare runtimeEnv as
// a string. A strict schema (additionalProperties: false) would otherwise
// reject every hydrated config.
func Augment(schema document.Document) document.Document {
	out := schema.Clone()
	if out == nil {
		out = document.Document{}
	}

	props, ok := out["properties"].(map[string]any)
	if !ok {
		props = map[string]any{}
	}
	props[document.RuntimeEnvKey] = map[string]any{"type": "string"}
	out["properties"] = props

	return out
}

func properties(schema map[string]any) map[string]any {
	props, _ := schema["properties"].(map[string]any)
	return props
}
