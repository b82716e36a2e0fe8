/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// Parse decodes JSON text into a Document, preserving object key order.
// Malformed input yields a *ParseError and no partial document.
//
// jsonparser walks the raw bytes in document order but is lenient about
// syntax, so the text is first validated with the standard decoder to get a
// strict verdict (and a useful offset in the error message).
func Parse(text string) (*Document, error) {
	data := []byte(text)
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &ParseError{Err: err}
	}
	root, err := parseValue(bytes.TrimSpace(data), rootValueType(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return &Document{root: root}, nil
}

// rootValueType infers the top-level value type from the first significant
// byte. The input is already known to be valid JSON.
func rootValueType(data []byte) jsonparser.ValueType {
	s := bytes.TrimLeft(data, " \t\r\n")
	if len(s) == 0 {
		return jsonparser.Unknown
	}
	switch s[0] {
	case '{':
		return jsonparser.Object
	case '[':
		return jsonparser.Array
	case '"':
		return jsonparser.String
	case 't', 'f':
		return jsonparser.Boolean
	case 'n':
		return jsonparser.Null
	default:
		return jsonparser.Number
	}
}

func parseValue(value []byte, dt jsonparser.ValueType) (*Node, error) {
	switch dt {
	case jsonparser.Object:
		n := NewObject()
		err := jsonparser.ObjectEach(value, func(key, v []byte, vt jsonparser.ValueType, _ int) error {
			k := string(key)
			if bytes.IndexByte(key, '\\') >= 0 {
				if uk, uerr := jsonparser.ParseString(key); uerr == nil {
					k = uk
				}
			}
			child, cerr := parseValue(v, vt)
			if cerr != nil {
				return cerr
			}
			n.obj.Set(k, child)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return n, nil
	case jsonparser.Array:
		n := NewArray()
		var inner error
		_, err := jsonparser.ArrayEach(value, func(v []byte, vt jsonparser.ValueType, _ int, aerr error) {
			if inner != nil {
				return
			}
			if aerr != nil {
				inner = aerr
				return
			}
			child, cerr := parseValue(v, vt)
			if cerr != nil {
				inner = cerr
				return
			}
			n.arr = append(n.arr, child)
		})
		if err != nil {
			return nil, err
		}
		if inner != nil {
			return nil, inner
		}
		return n, nil
	case jsonparser.String:
		// jsonparser hands string values without quotes but still escaped
		s, err := jsonparser.ParseString(trimQuotes(value))
		if err != nil {
			return nil, err
		}
		return NewString(s), nil
	case jsonparser.Number:
		lit := strings.TrimSpace(string(value))
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, err
		}
		return newNumberLit(f, lit), nil
	case jsonparser.Boolean:
		return NewBool(bytes.HasPrefix(bytes.TrimSpace(value), []byte("t"))), nil
	case jsonparser.Null:
		return NewNull(), nil
	default:
		return nil, errors.New("unsupported JSON value")
	}
}

// trimQuotes strips surrounding double quotes when present. Values arriving
// from ObjectEach/ArrayEach callbacks are already unquoted; the document root
// is not.
func trimQuotes(v []byte) []byte {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
