// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package field

import (
	"bytes"
	"encoding/xml"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matta/elisa/internal/apierr"
	"github.com/pkg/errors"
)

func encode(t *testing.T, f Field) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	e := xml.NewEncoder(&buf)
	if err := f.Encode(e); err != nil {
		return "", err
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
	return buf.String(), nil
}

func parse(t *testing.T, doc string) *Node {
	t.Helper()
	n, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse(%q) = %v", doc, err)
	}
	return n
}

func TestScalarEncode(t *testing.T) {
	set := func(v string) *Scalar {
		s := NewScalar("subject")
		s.Set(v)
		return &s
	}
	unset := NewScalar("subject")
	cases := []struct {
		field *Scalar
		want  string
	}{
		{&unset, ""},
		{set(""), ""},
		{set("Unit test"), "<subject>Unit test</subject>"},
		{set("a < b & c"), "<subject>a &lt; b &amp; c</subject>"},
	}
	for _, tc := range cases {
		got, err := encode(t, tc.field)
		if err != nil {
			t.Errorf("Encode(%v) = %v", tc.field, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Encode(%v) = %q, want %q", tc.field, got, tc.want)
		}
	}
}

func TestScalarDecodeKeepsBytes(t *testing.T) {
	cases := []struct {
		doc    string
		want   string
		wantOK bool
	}{
		{"<body>  spaced\n text </body>", "  spaced\n text ", true},
		{"<body>日本語 &amp; more</body>", "日本語 & more", true},
		{"<body></body>", "", false},
	}
	for _, tc := range cases {
		s := NewScalar("body")
		if err := s.Decode(parse(t, tc.doc)); err != nil {
			t.Fatalf("Decode(%q) = %v", tc.doc, err)
		}
		got, ok := s.Lookup()
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Decode(%q) -> (%q, %v), want (%q, %v)", tc.doc, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestStringList(t *testing.T) {
	l := NewStringList("systems_affected")
	got, err := encode(t, &l)
	if err != nil || got != "" {
		t.Errorf("Encode(empty) = (%q, %v), want (\"\", nil)", got, err)
	}

	l.Set([]string{"HLT", "LVL1"})
	got, err = encode(t, &l)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	want := "<systems_affected><count>2</count>" +
		"<system_affected>HLT</system_affected>" +
		"<system_affected>LVL1</system_affected></systems_affected>"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}

	back := NewStringList("systems_affected")
	if err := back.Decode(parse(t, want)); err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if diff := cmp.Diff([]string{"HLT", "LVL1"}, back.Values()); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestStringListUsesFixedItemTag(t *testing.T) {
	l := NewStringList("systems")
	l.Set([]string{"DAQ"})
	got, err := encode(t, &l)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	want := "<systems><count>1</count><system_affected>DAQ</system_affected></systems>"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestAttachmentsDecode(t *testing.T) {
	doc := `<attachments><count>1</count><attachment>` +
		`<filename>barcelona.jpg</filename><ID>1239088</ID>` +
		`<link>http://example.com/api/messages/132789/attachments/1239088</link>` +
		`</attachment></attachments>`
	a := NewAttachments("attachments")
	if err := a.Decode(parse(t, doc)); err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	want := []Attachment{{
		ID:       "1239088",
		Filename: "barcelona.jpg",
		Link:     "http://example.com/api/messages/132789/attachments/1239088",
	}}
	if diff := cmp.Diff(want, a.Items()); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}

	got, err := encode(t, &a)
	if err != nil || got != "" {
		t.Errorf("Encode() = (%q, %v), want nothing", got, err)
	}
}

func TestAttachmentsDecodeMissingElement(t *testing.T) {
	a := NewAttachments("attachments")
	err := a.Decode(parse(t, `<attachments><attachment><ID>1</ID><link>x</link></attachment></attachments>`))
	var fe *apierr.FormatError
	if !errors.As(err, &fe) {
		t.Errorf("Decode() = %v, want a FormatError", err)
	}
}

func TestUploadsNeverEncode(t *testing.T) {
	u := NewUploads("attachments")
	u.Set([]string{"/tmp/a.txt", "/tmp/b.png"})
	got, err := encode(t, &u)
	if err != nil || got != "" {
		t.Errorf("Encode() = (%q, %v), want nothing", got, err)
	}
	if diff := cmp.Diff([]string{"/tmp/a.txt", "/tmp/b.png"}, u.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionTreeEncode(t *testing.T) {
	cases := []struct {
		options []Option
		want    string
	}{
		{nil, ""},
		{
			[]Option{{Name: "Trigger_Area", Value: "Trigger Group", Options: []Option{}}},
			"<options><option><name>Trigger_Area</name><value>Trigger Group</value>" +
				"<options><count>0</count></options></option><count>1</count></options>",
		},
		{
			[]Option{{Name: "Area", Value: "Online"}},
			"<options><option><name>Area</name><value>Online</value></option><count>1</count></options>",
		},
		{
			[]Option{
				{Name: "Area", Value: "Group", Options: []Option{
					{Name: "Group", Value: "ID"},
					{Name: "Group", Value: "Calo"},
				}},
				{Name: "Other", Value: "x"},
			},
			"<options><option><name>Area</name><value>Group</value><options>" +
				"<option><name>Group</name><value>ID</value></option>" +
				"<option><name>Group</name><value>Calo</value></option>" +
				"<count>2</count></options></option>" +
				"<option><name>Other</name><value>x</value></option>" +
				"<count>2</count></options>",
		},
	}
	for _, tc := range cases {
		tree := NewOptionTree("options")
		tree.Set(tc.options)
		got, err := encode(t, &tree)
		if err != nil {
			t.Errorf("Encode(%#v) = %v", tc.options, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Encode(%#v) = %q, want %q", tc.options, got, tc.want)
		}
	}
}

func TestOptionTreeEncodeRejects(t *testing.T) {
	cases := [][]Option{
		{{Value: "nameless"}},
		{{Name: "a", Value: "1", Options: []Option{{Value: "nameless"}}}},
		{{Name: "valueless"}},
		{{Name: "a", Value: "1", Options: []Option{{Name: "valueless"}}}},
		{{Name: "a", Value: "1", Options: []Option{
			{Name: "b", Value: "2", Options: []Option{{Name: "c", Value: "3"}}},
		}}},
	}
	for _, options := range cases {
		tree := NewOptionTree("options")
		tree.Set(options)
		_, err := encode(t, &tree)
		var fe *apierr.FormatError
		if !errors.As(err, &fe) {
			t.Errorf("Encode(%#v) = %v, want a FormatError", options, err)
		}
	}
}

func TestOptionTreeDecode(t *testing.T) {
	doc := `<options><count>1</count><option><name>Area</name><value>Group</value>` +
		`<options><count>1</count><option><name>Group</name><value>ID</value>` +
		`<options><option><name>too</name><value>deep</value></option></options>` +
		`</option></options></option></options>`
	tree := NewOptionTree("options")
	if err := tree.Decode(parse(t, doc)); err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	want := []Option{{Name: "Area", Value: "Group", Options: []Option{{Name: "Group", Value: "ID"}}}}
	if diff := cmp.Diff(want, tree.Options()); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionTreeDecodeRequiresNameAndValue(t *testing.T) {
	for _, doc := range []string{
		`<options><option><value>v</value></option></options>`,
		`<options><option><name>n</name></option></options>`,
		`<options><option><name>n</name><value>v</value><options><option><name>c</name></option></options></option></options>`,
		`<options><option><name>n</name><value/></option></options>`,
		`<options><option><name>n</name><value></value></option></options>`,
		`<options><option><name>n</name><value>v</value><options><option><name>c</name><value/></option></options></option></options>`,
	} {
		tree := NewOptionTree("options")
		err := tree.Decode(parse(t, doc))
		var fe *apierr.FormatError
		if !errors.As(err, &fe) {
			t.Errorf("Decode(%q) = %v, want a FormatError", doc, err)
		}
	}
}

func TestDescribe(t *testing.T) {
	s := NewScalar("author")
	s.Set("Raul Murillo")
	if got, want := s.String(), "author             : Raul Murillo"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	tree := NewOptionTree("options")
	tree.Set([]Option{{Name: "Area", Value: "Group", Options: []Option{{Name: "Sub", Value: "ID"}}}})
	want := "options            : 1" +
		"\n    |---- Area          : Group" +
		"\n          |---- Sub           : ID"
	if got := tree.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
