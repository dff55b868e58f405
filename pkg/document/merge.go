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
	"github.com/knadh/koanf/maps"
)

// Merge deep-merges override on top of base and returns a new document.
// Objects present on both sides are merged recursively; for anything else
// the override wins outright, so arrays are replaced, never concatenated.
// Neither input is modified.
func Merge(base, override Document) Document {
	if base == nil && override == nil {
		return nil
	}
	out := copyMap(base)
	maps.Merge(copyMap(override), out)
	return Document(out)
}

func copyMap(d Document) map[string]any {
	if len(d) == 0 {
		return map[string]any{}
	}
	return maps.Copy(map[string]any(d))
}
