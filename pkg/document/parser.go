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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFileType = errors.Base("unsupported file type")
	ErrMalformedFile       = errors.Base("malformed file")
)

// 🔌 Parser is the interface for document parsers
type Parser interface {
	// 📝 Parse decodes raw bytes into a document
	Parse(ctx context.Context, data []byte) (Document, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

func init() {
	Register(&JSONParser{})
	Register(&YAMLParser{})
}

// 🎯 Parse picks a parser by file extension and decodes data with it.
func Parse(ctx context.Context, path string, data []byte) (Document, error) {
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("%w: %q: only .json and .yaml/.yml files are supported", ErrUnsupportedFileType, filepath.Base(path))
	}

	zerolog.Ctx(ctx).Trace().Str("path", path).Int("bytes", len(data)).Msg("parsing document")

	doc, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("%w: %s: %s", ErrMalformedFile, path, err.Error())
	}
	return doc, nil
}

func extension(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func (p *JSONParser) CanParse(filename string) bool {
	return extension(filename) == ".json"
}

func (p *JSONParser) Parse(ctx context.Context, data []byte) (Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, errors.Errorf("parsing JSON: unexpected data after top-level value")
	}

	return FromValue(v)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func (p *YAMLParser) CanParse(filename string) bool {
	ext := extension(filename)
	return ext == ".yaml" || ext == ".yml"
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (Document, error) {
	return DecodeYAML(data)
}

// DecodeYAML decodes a single YAML (or JSON) document. Empty input yields a
// nil Document. Unquoted timestamps stay strings holding their source text.
func DecodeYAML(data []byte) (Document, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := decoder.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	timestampsAsText(&root)

	var v any
	if err := root.Decode(&v); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	return FromValue(v)
}

func timestampsAsText(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
		return
	}
	for _, c := range n.Content {
		timestampsAsText(c)
	}
}
