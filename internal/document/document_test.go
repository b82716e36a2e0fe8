/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"strings"
	"testing"
)

const sampleLayout = `{
  "id": "home",
  "moduleId": "mod-7",
  "moduleTitle": "Home",
  "moduleElements": [
    {"id": "A", "Component": "Banner", "props": {"visible": true, "position": {"x": 50, "y": 100, "width": 150, "height": 100}}},
    {"id": "B", "type": "List", "props": {"items": ["a", "b", "c"]}}
  ],
  "enhancedData": [
    {"id": "E1", "props": {}}
  ]
}`

func mustParse(t *testing.T, text string) *Document {
	t.Helper()
	d, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func mustPath(t *testing.T, s string) Path {
	t.Helper()
	p, err := ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", s, err)
	}
	return p
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, text := range []string{"", "{", `{"a": 1,}`, `{"a" 1}`, "[1, 2", `{"a": 1} trailing`} {
		if _, err := Parse(text); err == nil {
			t.Fatalf("Parse(%q) succeeded, want ParseError", text)
		} else if !IsParseError(err) {
			t.Fatalf("Parse(%q) error %v is not a ParseError", text, err)
		}
	}
}

func TestRoundTripPreservesStructure(t *testing.T) {
	d := mustParse(t, sampleLayout)
	again := mustParse(t, d.Serialize())
	if !d.Equal(again) {
		t.Fatalf("round-trip changed the document:\n%s\nvs\n%s", d.Serialize(), again.Serialize())
	}
}

func TestSerializePreservesKeyOrder(t *testing.T) {
	d := mustParse(t, `{"zeta": 1, "alpha": 2, "mid": {"b": 1, "a": 2}}`)
	out := d.Serialize()
	zi := strings.Index(out, "zeta")
	ai := strings.Index(out, "alpha")
	bi := strings.Index(out, `"b"`)
	a2 := strings.Index(out, `"a"`)
	if zi < 0 || ai < 0 || zi > ai {
		t.Fatalf("top-level key order not preserved:\n%s", out)
	}
	if bi < 0 || a2 < 0 || bi > a2 {
		t.Fatalf("nested key order not preserved:\n%s", out)
	}
}

func TestNumberLiteralsSurviveRoundTrip(t *testing.T) {
	d := mustParse(t, `{"a": 2, "b": 2.0, "c": 0.5, "d": -3}`)
	out := d.Serialize()
	for _, lit := range []string{`"a": 2`, `"b": 2.0`, `"c": 0.5`, `"d": -3`} {
		if !strings.Contains(out, lit) {
			t.Fatalf("serialized output lost literal %q:\n%s", lit, out)
		}
	}
}

func TestGetResolvesNestedPaths(t *testing.T) {
	d := mustParse(t, sampleLayout)
	n, err := d.Get(mustPath(t, "moduleElements[0].props.position.x"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n.Kind() != KindNumber || n.Num() != 50 {
		t.Fatalf("got %v %v, want number 50", n.Kind(), n.Num())
	}
}

func TestGetMissingPathIsPathError(t *testing.T) {
	d := mustParse(t, sampleLayout)
	_, err := d.Get(mustPath(t, "moduleElements[5].id"))
	if err == nil || !IsPathError(err) {
		t.Fatalf("expected PathError, got %v", err)
	}
	_, err = d.Get(mustPath(t, "id.x"))
	if err == nil || !IsPathError(err) {
		t.Fatalf("descending into a scalar should be a PathError, got %v", err)
	}
}

func TestSetCreatesIntermediateObjects(t *testing.T) {
	d := mustParse(t, `{"moduleElements": [{"id": "A"}]}`)
	p := mustPath(t, "moduleElements[0].props.position.x")
	if err := d.Set(p, NewNumber(42)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	n, err := d.Get(p)
	if err != nil || n.Num() != 42 {
		t.Fatalf("read-back after create-on-write: %v %v", n, err)
	}
	// the created props node is an Object, not an Array
	props, err := d.Get(mustPath(t, "moduleElements[0].props"))
	if err != nil || props.Kind() != KindObject {
		t.Fatalf("props should be an object, got %v %v", props, err)
	}
}

func TestSetAppendsAtArrayEnd(t *testing.T) {
	d := mustParse(t, `{"xs": [1, 2]}`)
	if err := d.Set(mustPath(t, "xs[2]"), NewNumber(3)); err != nil {
		t.Fatalf("append via set: %v", err)
	}
	if err := d.Set(mustPath(t, "xs[5]"), NewNumber(9)); err == nil {
		t.Fatalf("set far past end must fail")
	}
	n, _ := d.Get(mustPath(t, "xs"))
	if n.Len() != 3 {
		t.Fatalf("xs length = %d, want 3", n.Len())
	}
}

func TestSetCoercesLeafIntermediates(t *testing.T) {
	d := mustParse(t, `{"moduleElements": [{"id": "A", "props": "oops"}], "arr": [1]}`)
	p := mustPath(t, "moduleElements[0].props.position.x")
	if err := d.Set(p, NewNumber(50)); err != nil {
		t.Fatalf("Set over a scalar props: %v", err)
	}
	props, err := d.Get(mustPath(t, "moduleElements[0].props"))
	if err != nil || props.Kind() != KindObject {
		t.Fatalf("props not coerced to an object: %v %v", props, err)
	}
	n, err := d.Get(p)
	if err != nil || n.Num() != 50 {
		t.Fatalf("read-back after coercion: %v %v", n, err)
	}

	// scalar array elements coerce the same way
	if err := d.Set(mustPath(t, "arr[0].k"), NewBool(true)); err != nil {
		t.Fatalf("Set over a scalar element: %v", err)
	}
	el, _ := d.Get(mustPath(t, "arr[0]"))
	if el.Kind() != KindObject || el.Child("k") == nil {
		t.Fatalf("element not coerced: %s", d.Serialize())
	}
}

func TestSetFailureLeavesDocumentUntouched(t *testing.T) {
	d := mustParse(t, `{"a": {"b": 1}}`)
	before := d.Clone()
	// a.c and a.c.d are created before the final index fails out of range
	if err := d.Set(mustPath(t, "a.c.d[3]"), NewNumber(1)); err == nil {
		t.Fatalf("expected failure")
	} else if !IsPathError(err) {
		t.Fatalf("want PathError, got %v", err)
	}
	if !d.Equal(before) {
		t.Fatalf("failed Set left partial intermediates behind:\n%s", d.Serialize())
	}
}

func TestSetManyIsAtomic(t *testing.T) {
	d := mustParse(t, sampleLayout)
	before := d.Clone()
	err := d.SetMany([]Write{
		{Path: mustPath(t, "moduleElements[0].props.position.x"), Value: NewNumber(80)},
		{Path: mustPath(t, "moduleElements[9].props.position.y"), Value: NewNumber(140)}, // stale path
	})
	if err == nil {
		t.Fatalf("expected PathError from second write")
	}
	if !d.Equal(before) {
		t.Fatalf("SetMany failure must roll back the first write")
	}

	if err := d.SetMany([]Write{
		{Path: mustPath(t, "moduleElements[0].props.position.x"), Value: NewNumber(80)},
		{Path: mustPath(t, "moduleElements[0].props.position.y"), Value: NewNumber(140)},
	}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	x, _ := d.Get(mustPath(t, "moduleElements[0].props.position.x"))
	y, _ := d.Get(mustPath(t, "moduleElements[0].props.position.y"))
	if x.Num() != 80 || y.Num() != 140 {
		t.Fatalf("position = (%v,%v), want (80,140)", x.Num(), y.Num())
	}
}

func TestReplaceKeepsDocumentOnParseError(t *testing.T) {
	d := mustParse(t, sampleLayout)
	before := d.Clone()
	if err := d.Replace(`{"broken": `); err == nil {
		t.Fatalf("Replace with bad text must fail")
	} else if !IsParseError(err) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if !d.Equal(before) {
		t.Fatalf("failed Replace must not touch the document")
	}
	if err := d.Replace(`{"fresh": true}`); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if d.Root().Child("fresh") == nil {
		t.Fatalf("Replace did not swap the root")
	}
}

func TestRemove(t *testing.T) {
	d := mustParse(t, sampleLayout)
	if err := d.Remove(mustPath(t, "moduleElements[0]")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	n, _ := d.Get(mustPath(t, "moduleElements"))
	if n.Len() != 1 {
		t.Fatalf("moduleElements length = %d, want 1", n.Len())
	}
	first, _ := d.Get(mustPath(t, "moduleElements[0].id"))
	if first.Str() != "B" {
		t.Fatalf("remaining element id = %q, want B", first.Str())
	}
	if err := d.Remove(mustPath(t, "nope")); err == nil || !IsPathError(err) {
		t.Fatalf("removing a missing key should be a PathError, got %v", err)
	}
}

func TestPathStringAndParseRoundTrip(t *testing.T) {
	cases := []string{"$", "id", "moduleElements[0].props.position.x", "enhancedData[12]", "a.b[3].c"}
	for _, s := range cases {
		p, err := ParsePath(s)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", s, err)
		}
		if got := p.String(); got != s {
			t.Fatalf("Path round-trip: %q -> %q", s, got)
		}
	}
	if _, err := ParsePath("a[x]"); err == nil {
		t.Fatalf("bad index must not parse")
	}
}

func TestPathHasPrefix(t *testing.T) {
	p := mustPath(t, "moduleElements[0].props.position.x")
	w := mustPath(t, "moduleElements[0]")
	if !p.HasPrefix(w) {
		t.Fatalf("position path should have widget path prefix")
	}
	if w.HasPrefix(p) {
		t.Fatalf("prefix relation is not symmetric")
	}
}

func TestEscapedStringsRoundTrip(t *testing.T) {
	d := mustParse(t, `{"label": "line1\nline2", "quote": "say \"hi\""}`)
	n, err := d.Get(mustPath(t, "label"))
	if err != nil || n.Str() != "line1\nline2" {
		t.Fatalf("escaped newline lost: %q %v", n.Str(), err)
	}
	again := mustParse(t, d.Serialize())
	if !d.Equal(again) {
		t.Fatalf("escape round-trip failed:\n%s", d.Serialize())
	}
}

func TestNonObjectRootIsRepresentable(t *testing.T) {
	d := mustParse(t, `[1, "two", null, {"k": false}]`)
	if d.Root().Kind() != KindArray || d.Root().Len() != 4 {
		t.Fatalf("array root mis-parsed: %v len=%d", d.Root().Kind(), d.Root().Len())
	}
	again := mustParse(t, d.Serialize())
	if !d.Equal(again) {
		t.Fatalf("array-root round-trip failed")
	}
}
