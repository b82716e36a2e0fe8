/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one hop in a Path: an Object key or an Array index.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path addresses a Node from the document root. The empty Path addresses the
// root itself. Views hold Paths, never Node pointers, so there is exactly one
// writable representation of the document at any time.
type Path []Step

// Key appends an Object key step.
func (p Path) Key(k string) Path {
	np := make(Path, len(p), len(p)+1)
	copy(np, p)
	return append(np, Step{Key: k})
}

// At appends an Array index step.
func (p Path) At(i int) Path {
	np := make(Path, len(p), len(p)+1)
	copy(np, p)
	return append(np, Step{Index: i, IsIndex: true})
}

// Parent returns the path without its last step; the root path returns itself.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Equal reports step-wise equality.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether o is an ancestor of (or equal to) p.
func (p Path) HasPrefix(o Path) bool {
	if len(o) > len(p) {
		return false
	}
	for i := range o {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the path in dotted/bracketed form, e.g.
// "moduleElements[0].props.position.x". The root path renders as "$".
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	for i, s := range p {
		if s.IsIndex {
			b.WriteString("[")
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteString("]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

// ParsePath parses the form produced by String. Keys may not contain '.',
// '[' or ']'; document keys that do are still addressable programmatically.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "$" {
		return Path{}, nil
	}
	var p Path
	i := 0
	for i < len(s) {
		switch s[i] {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated index", s)
			}
			idx, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("path %q: bad index %q", s, s[i+1:i+end])
			}
			p = append(p, Step{Index: idx, IsIndex: true})
			i += end + 1
		default:
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' {
				j++
			}
			p = append(p, Step{Key: s[i:j]})
			i = j
		}
	}
	return p, nil
}
