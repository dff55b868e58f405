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
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/walteh/secretconf/pkg/document"
)

// ApplyDefaults returns a copy of doc with every missing property that the
// schema declares a default for filled in. Subschemas reached through
// $ref and allOf count, as do nested objects and array items.
func (v *Validator) ApplyDefaults(doc document.Document) document.Document {
	out := doc.Clone()
	if out == nil {
		out = document.Document{}
	}
	applyValue(v.compiled, map[string]any(out))
	return out
}

// applicable lists s plus every subschema that constrains the same
// instance through a reference or allOf.
func applicable(s *jsonschema.Schema, out []*jsonschema.Schema, seen map[*jsonschema.Schema]bool) []*jsonschema.Schema {
	if s == nil || seen[s] {
		return out
	}
	seen[s] = true
	out = append(out, s)

	out = applicable(s.Ref, out, seen)
	out = applicable(s.RecursiveRef, out, seen)
	out = applicable(s.DynamicRef, out, seen)
	for _, sub := range s.AllOf {
		out = applicable(sub, out, seen)
	}
	return out
}

func applyValue(s *jsonschema.Schema, v any) {
	if s == nil {
		return
	}
	for _, sch := range applicable(s, nil, map[*jsonschema.Schema]bool{}) {
		switch t := v.(type) {
		case map[string]any:
			applyObject(sch, t)
		case []any:
			for i, item := range t {
				applyValue(itemSchema(sch, i), item)
			}
		}
	}
}

func applyObject(s *jsonschema.Schema, obj map[string]any) {
	for key, prop := range s.Properties {
		if _, present := obj[key]; !present {
			if def, ok := defaultOf(prop); ok {
				obj[key] = document.Normalize(document.CloneValue(def))
			}
		}
		if val, ok := obj[key]; ok {
			applyValue(prop, val)
		}
	}
}

func defaultOf(s *jsonschema.Schema) (any, bool) {
	for _, sch := range applicable(s, nil, map[*jsonschema.Schema]bool{}) {
		if sch.Default != nil {
			return sch.Default, true
		}
	}
	return nil, false
}

func itemSchema(s *jsonschema.Schema, i int) *jsonschema.Schema {
	if i < len(s.PrefixItems) {
		return s.PrefixItems[i]
	}
	if s.Items2020 != nil {
		return s.Items2020
	}
	switch items := s.Items.(type) {
	case *jsonschema.Schema:
		return items
	case []*jsonschema.Schema:
		if i < len(items) {
			return items[i]
		}
		if additional, ok := s.AdditionalItems.(*jsonschema.Schema); ok {
			return additional
		}
	}
	return nil
}
