/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"encoding/json"
	"strings"
)

const indentUnit = "  "

// Serialize renders the document as pretty-printed JSON with two-space
// indentation. Object keys appear in insertion order, so a load/serialize
// cycle is stable byte-for-byte apart from whitespace normalization.
func (d *Document) Serialize() string {
	var b strings.Builder
	writeNode(&b, d.root, 0)
	b.WriteString("\n")
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		b.WriteString("null")
		return
	}
	switch n.kind {
	case KindObject:
		if n.obj.Len() == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		i := 0
		for pair := n.obj.Oldest(); pair != nil; pair = pair.Next() {
			if i > 0 {
				b.WriteString(",\n")
			}
			writeIndent(b, depth+1)
			b.WriteString(encodeString(pair.Key))
			b.WriteString(": ")
			writeNode(b, pair.Value, depth+1)
			i++
		}
		b.WriteString("\n")
		writeIndent(b, depth)
		b.WriteString("}")
	case KindArray:
		if len(n.arr) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, e := range n.arr {
			if i > 0 {
				b.WriteString(",\n")
			}
			writeIndent(b, depth+1)
			writeNode(b, e, depth+1)
		}
		b.WriteString("\n")
		writeIndent(b, depth)
		b.WriteString("]")
	case KindString:
		b.WriteString(encodeString(n.str))
	case KindNumber:
		b.WriteString(n.numberLiteral())
	case KindBool:
		if n.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	default:
		b.WriteString("null")
	}
}

func writeIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString(indentUnit)
	}
}

// encodeString quotes and escapes per JSON rules; the stdlib encoder already
// does exactly that for a bare string.
func encodeString(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(out)
}
