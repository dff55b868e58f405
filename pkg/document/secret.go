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
	"sort"
	"strconv"
	"strings"
)

// SecretSuffix marks a key whose value is a secret.
const SecretSuffix = "Secret"

// HasSecrets reports whether any key, at any depth, ends with SecretSuffix
// and holds a leaf value rather than a nested object.
func HasSecrets(d Document) bool {
	return len(SecretKeys(d)) > 0
}

// SecretKeys returns the dotted paths of every secret leaf in the document,
// sorted. Array elements appear as their index.
func SecretKeys(d Document) []string {
	var found []string
	walkSecrets(map[string]any(d), "", &found)
	sort.Strings(found)
	return found
}

func walkSecrets(v any, prefix string, found *[]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			path := joinPath(prefix, k)
			if _, nested := item.(map[string]any); !nested && strings.HasSuffix(k, SecretSuffix) {
				*found = append(*found, path)
				continue
			}
			walkSecrets(item, path, found)
		}
	case []any:
		for i, item := range t {
			walkSecrets(item, joinPath(prefix, strconv.Itoa(i)), found)
		}
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
