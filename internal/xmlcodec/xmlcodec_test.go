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

package xmlcodec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/field"
	"github.com/matta/elisa/internal/message"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const storedMessage = `<message>
        <author>Raul Murillo</author>
        <subject>Unit test</subject>
        <date>2012-12-14T12:27:17+01:00</date>
        <body>Test</body>
        <message_type>Trigger</message_type>
        <systems_affected>
        <count>2</count>
        <system_affected>HLT</system_affected>
        <system_affected>LVL1</system_affected>
        </systems_affected>
        <id>132814</id>
        <logbook>70</logbook>
        <encoding>3</encoding>
        <has_attachments>1</has_attachments>
        <has_replies>0</has_replies>
        <reply_to>0</reply_to>
        <thread_head>132814</thread_head>
        <valid>valid</valid>
        <options>
        <count>1</count>
        <option>
        <name>Trigger_Area</name>
        <value>Trigger Group</value>
        </option>
        </options>
        <attachments>
        <count>1</count>
        <attachment>
        <filename>barcelona.jpg</filename>
        <ID>1239088</ID>
        <link>http://pcatd137.cern.ch:8080/elisa.api/api/messages/132789/attachments/1239088</link>
        </attachment></attachments>
        </message>`

func exampleInsert() *message.Insert {
	m := message.NewInsert()
	m.SetAuthor("Raul Murillo")
	m.SetSubject("Unit test")
	m.SetBody("Test")
	m.SetType("Trigger")
	m.SetSystemsAffected([]string{"HLT", "LVL1"})
	m.SetOptions([]field.Option{{Name: "Trigger_Area", Value: "Trigger Group", Options: []field.Option{}}})
	m.SetAttachments([]string{"/Users/rmurillo/barcelona.jpg"})
	return m
}

func TestEncodeInsert(t *testing.T) {
	got, err := New(nil).Encode(exampleInsert(), InputMessageRoot)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	want := `<input_message><author>Raul Murillo</author><body>Test</body>` +
		`<message_type>Trigger</message_type><options><option><name>Trigger_Area</name>` +
		`<value>Trigger Group</value><options><count>0</count></options></option>` +
		`<count>1</count></options><subject>Unit test</subject><systems_affected>` +
		`<count>2</count><system_affected>HLT</system_affected>` +
		`<system_affected>LVL1</system_affected></systems_affected></input_message>`
	if string(got) != want {
		t.Errorf("Encode() = %s, want %s", got, want)
	}
}

func TestEncodeUpdateBody(t *testing.T) {
	u := message.NewUpdate("132814")
	u.SetBody("line one\nline two")
	got, err := New(nil).Encode(u, MessageBodyRoot)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	want := "<message_body><body>line one\nline two</body></message_body>"
	if string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncodeRejectsThirdLevel(t *testing.T) {
	m := message.NewInsert()
	m.SetOptions([]field.Option{{Name: "a", Value: "1", Options: []field.Option{
		{Name: "b", Value: "2", Options: []field.Option{{Name: "c", Value: "3"}}},
	}}})
	_, err := New(nil).Encode(m, InputMessageRoot)
	var fe *apierr.FormatError
	if !errors.As(err, &fe) {
		t.Errorf("Encode() = %v, want a FormatError", err)
	}
}

func TestDecodeStoredMessage(t *testing.T) {
	m, err := New(nil).DecodeMessage([]byte(storedMessage))
	if err != nil {
		t.Fatalf("DecodeMessage() = %v", err)
	}
	scalars := []struct {
		name, got, want string
	}{
		{"author", m.Author(), "Raul Murillo"},
		{"subject", m.Subject(), "Unit test"},
		{"body", m.Body(), "Test"},
		{"date", m.Date(), "2012-12-14T12:27:17+01:00"},
		{"type", m.Type(), "Trigger"},
		{"encoding", m.Encoding(), "3"},
		{"logbook", m.Logbook(), "70"},
		{"has_attachments", m.HasAttachments(), "1"},
		{"has_replies", m.HasReplies(), "0"},
		{"reply_to", m.ReplyTo(), "0"},
		{"thread_head", m.ThreadHead(), "132814"},
		{"valid", m.Valid(), "valid"},
		{"id", m.ID(), "132814"},
	}
	for _, s := range scalars {
		if s.got != s.want {
			t.Errorf("%s = %q, want %q", s.name, s.got, s.want)
		}
	}
	if diff := cmp.Diff([]string{"HLT", "LVL1"}, m.SystemsAffected()); diff != "" {
		t.Errorf("SystemsAffected() mismatch (-want +got):\n%s", diff)
	}
	wantOpts := []field.Option{{Name: "Trigger_Area", Value: "Trigger Group", Options: []field.Option{}}}
	if diff := cmp.Diff(wantOpts, m.Options()); diff != "" {
		t.Errorf("Options() mismatch (-want +got):\n%s", diff)
	}
	wantAtt := []field.Attachment{{
		ID:       "1239088",
		Filename: "barcelona.jpg",
		Link:     "http://pcatd137.cern.ch:8080/elisa.api/api/messages/132789/attachments/1239088",
	}}
	if diff := cmp.Diff(wantAtt, m.Attachments()); diff != "" {
		t.Errorf("Attachments() mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	in := message.NewInsert()
	in.SetAuthor("Shifter")
	in.SetSubject("Run 1234 <stopped>")
	in.SetBody("  beam dump & recovery\n")
	in.SetType("Trigger")
	in.SetStatus(message.StatusOpen)
	in.SetSystemsAffected([]string{"DAQ", "HLT", "LVL1"})
	in.SetOptions([]field.Option{
		{Name: "Trigger_Area", Value: "Trigger Group", Options: []field.Option{
			{Name: "Trigger_Group", Value: "ID"},
			{Name: "Trigger_Group", Value: "Calo"},
		}},
		{Name: "Shifter", Value: "yes", Options: []field.Option{}},
	})
	c := New(nil)
	data, err := c.Encode(in, MessageRoot)
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	out, err := c.DecodeMessage(data)
	if err != nil {
		t.Fatalf("DecodeMessage(%s) = %v", data, err)
	}
	for _, s := range []struct{ name, got, want string }{
		{"author", out.Author(), in.Author()},
		{"subject", out.Subject(), in.Subject()},
		{"body", out.Body(), in.Body()},
		{"type", out.Type(), in.Type()},
		{"status", string(out.Status()), string(in.Status())},
	} {
		if s.got != s.want {
			t.Errorf("%s = %q, want %q", s.name, s.got, s.want)
		}
	}
	if diff := cmp.Diff(in.SystemsAffected(), out.SystemsAffected()); diff != "" {
		t.Errorf("SystemsAffected() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(in.Options(), out.Options()); diff != "" {
		t.Errorf("Options() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSkipsUnknownElements(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := New(zap.New(core).Sugar())
	doc := `<message><author>A</author><shiny_new_field>x</shiny_new_field><subject>S</subject></message>`
	m, err := c.DecodeMessage([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeMessage() = %v", err)
	}
	if m.Author() != "A" || m.Subject() != "S" {
		t.Errorf("DecodeMessage() = author %q subject %q, want A and S", m.Author(), m.Subject())
	}
	if n := logs.FilterField(zap.String("tag", "shiny_new_field")).Len(); n != 1 {
		t.Errorf("logged %d warnings about shiny_new_field, want 1", n)
	}
}

func TestDecodeMessages(t *testing.T) {
	doc := `<messages><count>2</count>` +
		`<message><id>1</id></message>` +
		`<message><id>2</id></message>` +
		`</messages>`
	msgs, err := New(nil).DecodeMessages([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeMessages() = %v", err)
	}
	var ids []string
	for _, m := range msgs {
		ids = append(ids, m.ID())
	}
	if diff := cmp.Diff([]string{"1", "2"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	msgs, err = New(nil).DecodeMessages([]byte(`<message><id>9</id></message>`))
	if err != nil || len(msgs) != 1 || msgs[0].ID() != "9" {
		t.Errorf("DecodeMessages(single) = %v, %v", msgs, err)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []string{
		`<message><author>unterminated</message>`,
		`<messages></messages>`,
		`<message><options><option><value>v</value></option></options></message>`,
	}
	for _, doc := range cases {
		_, err := New(nil).DecodeMessage([]byte(doc))
		var fe *apierr.FormatError
		if !errors.As(err, &fe) {
			t.Errorf("DecodeMessage(%q) = %v, want a FormatError", doc, err)
		}
	}
}

func TestDecodeCatalogs(t *testing.T) {
	c := New(nil)
	types, err := c.DecodeTypes([]byte(`<message_types><message_type>Default Message Type</message_type>` +
		`<message_type>Shift Summary</message_type></message_types>`))
	if err != nil {
		t.Fatalf("DecodeTypes() = %v", err)
	}
	if diff := cmp.Diff([]string{"Default Message Type", "Shift Summary"}, types); diff != "" {
		t.Errorf("DecodeTypes() mismatch (-want +got):\n%s", diff)
	}

	systems, err := c.DecodeSystemsAffected([]byte(`<systems_affected><count>2</count>` +
		`<system_affected>DAQ</system_affected><system_affected>HLT</system_affected></systems_affected>`))
	if err != nil {
		t.Fatalf("DecodeSystemsAffected() = %v", err)
	}
	if diff := cmp.Diff([]string{"DAQ", "HLT"}, systems); diff != "" {
		t.Errorf("DecodeSystemsAffected() mismatch (-want +got):\n%s", diff)
	}

	opts, err := c.DecodeTypeOptions([]byte(`<options><option>` +
		`<name>Trigger_Area</name><type>SINGLEVALUE</type>` +
		`<comment>Choose one among the possible values</comment>` +
		`<possible_values>Online,Offline,Trigger Group</possible_values>` +
		`<options><option><name>Trigger_Group</name><type>MULTIPLEVALUE</type>` +
		`<possible_values>Calo,ID</possible_values></option></options>` +
		`</option></options>`))
	if err != nil {
		t.Fatalf("DecodeTypeOptions() = %v", err)
	}
	want := []message.TypeOption{{
		Name:           "Trigger_Area",
		Type:           "SINGLEVALUE",
		Comment:        "Choose one among the possible values",
		PossibleValues: "Online,Offline,Trigger Group",
		Options: []message.TypeOption{{
			Name:           "Trigger_Group",
			Type:           "MULTIPLEVALUE",
			PossibleValues: "Calo,ID",
		}},
	}}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("DecodeTypeOptions() mismatch (-want +got):\n%s", diff)
	}
}
