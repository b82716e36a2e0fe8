/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package schema

import (
	_ "embed"
	"fmt"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"uicomposer/internal/document"
)

//go:embed layout.schema.json
var layoutSchema []byte

// ValidateShape checks a document against the expected layout shape.
// Findings come back as warnings; a document that fails the schema is
// still editable, only the widget extraction may come up empty.
func ValidateShape(d *document.Document) ([]Warning, error) {
	schemaLoader := gojsonschema.NewBytesLoader(layoutSchema)
	docLoader := gojsonschema.NewStringLoader(d.Serialize())

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validate: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	warnings := make([]Warning, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		p, perr := ParsePointerField(e.Field())
		if perr != nil {
			p = document.Path{}
		}
		warnings = append(warnings, Warning{Path: p, Msg: e.Description()})
	}
	return warnings, nil
}

// ParsePointerField converts gojsonschema's dotted field notation
// ("moduleElements.0.props.position.x", "(root)") into a document path.
func ParsePointerField(field string) (document.Path, error) {
	if field == "" || field == "(root)" {
		return document.Path{}, nil
	}
	var p document.Path
	start := 0
	for i := 0; i <= len(field); i++ {
		if i < len(field) && field[i] != '.' {
			continue
		}
		seg := field[start:i]
		start = i + 1
		if seg == "" {
			return nil, fmt.Errorf("field %q: empty segment", field)
		}
		if idx, ok := allDigits(seg); ok {
			p = p.At(idx)
			continue
		}
		p = p.Key(seg)
	}
	return p, nil
}

func allDigits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
