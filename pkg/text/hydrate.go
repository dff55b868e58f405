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

	"github.com/walteh/secretconf/pkg/document"
)

// 💧 Hydrate substitutes placeholders in doc and then sets runtimeEnv,
// overwriting any key of the same name.
func Hydrate(ctx context.Context, s *Substitutor, runtimeEnv string, doc document.Document) (document.Document, error) {
	out, err := s.Substitute(ctx, doc)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = document.Document{}
	}
	out[document.RuntimeEnvKey] = runtimeEnv
	return out, nil
}
