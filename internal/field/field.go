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

// Package field implements the typed units of data that make up a
// logbook message, and the XML shape each of them takes on the wire.
//
// Every field has a fixed wire name.  Encoding a field that holds nothing
// writes nothing.  Decoding is given the field's own element.
package field

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/matta/elisa/internal/apierr"
)

// Field is implemented by every field kind.
type Field interface {
	// Name returns the wire name of the field.
	Name() string

	// Encode appends the field to the element currently open in e.
	Encode(e *xml.Encoder) error

	// Decode populates the field from its element.
	Decode(n *Node) error

	// String describes the field for humans.
	String() string
}

const labelWidth = 19

func label(name string) string {
	return fmt.Sprintf("%-*s: ", labelWidth, name)
}

// Scalar is an optional string value.  Numbers and booleans travel as
// their string form.
type Scalar struct {
	name  string
	value string
	set   bool
}

// NewScalar returns an unset scalar field.
func NewScalar(name string) Scalar {
	return Scalar{name: name}
}

func (s *Scalar) Name() string { return s.name }

// Set stores v.  An empty v is still "set"; it is simply not encoded.
func (s *Scalar) Set(v string) {
	s.value, s.set = v, true
}

// Clear makes the field absent again.
func (s *Scalar) Clear() {
	s.value, s.set = "", false
}

func (s *Scalar) Value() string { return s.value }

// Lookup returns the value and whether it was set.
func (s *Scalar) Lookup() (string, bool) { return s.value, s.set }

// IsSet reports whether the field holds a non-empty value.
func (s *Scalar) IsSet() bool { return s.set && s.value != "" }

func (s *Scalar) Encode(e *xml.Encoder) error {
	if !s.IsSet() {
		return nil
	}
	return WriteElement(e, s.name, s.value)
}

func (s *Scalar) Decode(n *Node) error {
	if n.Text != "" {
		s.Set(n.Text)
	}
	return nil
}

func (s *Scalar) String() string {
	if !s.set {
		return label(s.name) + "None"
	}
	return label(s.name) + s.value
}

// SystemAffectedTag is the element used for each item of a StringList,
// whatever the list's own wire name is.
const SystemAffectedTag = "system_affected"

// StringList is an ordered list of strings, e.g. the systems affected
// by a logbook entry:
//
//	<systems_affected>
//	  <count>2</count>
//	  <system_affected>DAQ</system_affected>
//	  <system_affected>HLT</system_affected>
//	</systems_affected>
type StringList struct {
	name   string
	values []string
}

func NewStringList(name string) StringList {
	return StringList{name: name}
}

func (l *StringList) Name() string { return l.name }

func (l *StringList) Set(values []string) {
	l.values = append([]string(nil), values...)
}

func (l *StringList) Values() []string { return l.values }

func (l *StringList) IsSet() bool { return len(l.values) > 0 }

func (l *StringList) Encode(e *xml.Encoder) error {
	if len(l.values) == 0 {
		return nil
	}
	end, err := startElement(e, l.name)
	if err != nil {
		return err
	}
	if err := writeCount(e, len(l.values)); err != nil {
		return err
	}
	for _, v := range l.values {
		if err := WriteElement(e, SystemAffectedTag, v); err != nil {
			return err
		}
	}
	return e.EncodeToken(end)
}

func (l *StringList) Decode(n *Node) error {
	var values []string
	for _, child := range n.FindAll(SystemAffectedTag) {
		values = append(values, child.Text)
	}
	l.values = values
	return nil
}

func (l *StringList) String() string {
	return label(l.name) + "[" + strings.Join(l.values, ", ") + "]"
}

// Attachment identifies a file attached to a stored message.
type Attachment struct {
	ID       string
	Filename string
	Link     string
}

// Attachments is the inbound form of a message's attachments, as the
// server reports them:
//
//	<attachments>
//	  <count>1</count>
//	  <attachment>
//	    <filename>foto.jpg</filename>
//	    <ID>0</ID>
//	    <link>http://example.com/api/messages/200006/attachments/0</link>
//	  </attachment>
//	</attachments>
//
// It never encodes; files are uploaded through a separate multipart
// channel (see Uploads).
type Attachments struct {
	name  string
	items []Attachment
}

func NewAttachments(name string) Attachments {
	return Attachments{name: name}
}

func (a *Attachments) Name() string { return a.name }

func (a *Attachments) Items() []Attachment { return a.items }

func (a *Attachments) Encode(e *xml.Encoder) error { return nil }

func (a *Attachments) Decode(n *Node) error {
	var items []Attachment
	for _, child := range n.FindAll("attachment") {
		var att Attachment
		for _, sub := range []struct {
			tag string
			dst *string
		}{
			{"ID", &att.ID},
			{"filename", &att.Filename},
			{"link", &att.Link},
		} {
			node := child.Find(sub.tag)
			if node == nil {
				return apierr.Formatf("attachment is missing the %s element", sub.tag)
			}
			*sub.dst = node.Text
		}
		items = append(items, att)
	}
	a.items = items
	return nil
}

func (a *Attachments) String() string {
	var sb strings.Builder
	sb.WriteString(label(a.name) + strconv.Itoa(len(a.items)))
	for _, att := range a.items {
		fmt.Fprintf(&sb, "\n    |---- %-4s: %s", "ID", att.ID)
		fmt.Fprintf(&sb, "\n    |---- %-4s: %s", "Name", att.Filename)
		fmt.Fprintf(&sb, "\n    |---- %-4s: %s", "Link", att.Link)
	}
	return sb.String()
}

// Uploads is the outbound form of a message's attachments: paths of
// local files to send along with the message.  Like Attachments it never
// encodes, and it ignores inbound data.
type Uploads struct {
	name  string
	paths []string
}

func NewUploads(name string) Uploads {
	return Uploads{name: name}
}

func (u *Uploads) Name() string { return u.name }

func (u *Uploads) Set(paths []string) {
	u.paths = append([]string(nil), paths...)
}

func (u *Uploads) Paths() []string { return u.paths }

func (u *Uploads) IsSet() bool { return len(u.paths) > 0 }

func (u *Uploads) Encode(e *xml.Encoder) error { return nil }

func (u *Uploads) Decode(n *Node) error { return nil }

func (u *Uploads) String() string {
	var sb strings.Builder
	sb.WriteString(label(u.name) + strconv.Itoa(len(u.paths)))
	for _, p := range u.paths {
		sb.WriteString("\n    |---- " + p)
	}
	return sb.String()
}
