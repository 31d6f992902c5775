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

package message

import (
	"github.com/matta/elisa/internal/field"
)

// Read is a message as stored on the server.  It has no setters; it is
// filled in by the decoder through Field.
type Read struct {
	rec *Record
}

// NewRead returns an empty Read.
func NewRead() *Read {
	return &Read{rec: newRecord()}
}

// Fields returns every field of the record.
func (v *Read) Fields() []field.Field { return v.rec.inbound() }

// Field returns the field with the given wire name, for decoding.
func (v *Read) Field(name string) (field.Field, bool) {
	for _, f := range v.rec.inbound() {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

func (v *Read) ID() string { return v.rec.id.Value() }
func (v *Read) Logbook() string { return v.rec.logbook.Value() }
func (v *Read) UserName() string { return v.rec.userName.Value() }
func (v *Read) Author() string { return v.rec.author.Value() }
func (v *Read) Date() string { return v.rec.date.Value() }
func (v *Read) Subject() string { return v.rec.subject.Value() }
func (v *Read) Type() string { return v.rec.msgType.Value() }
func (v *Read) SystemsAffected() []string { return v.rec.systemsAffected.Values() }
func (v *Read) Options() []field.Option { return v.rec.options.Options() }
func (v *Read) Body() string { return v.rec.body.Value() }
func (v *Read) Host() string { return v.rec.host.Value() }
func (v *Read) HasReplies() string { return v.rec.hasReplies.Value() }
func (v *Read) ReplyTo() string { return v.rec.replyTo.Value() }
func (v *Read) HasAttachments() string { return v.rec.hasAttachments.Value() }
func (v *Read) Attachments() []field.Attachment { return v.rec.attachments.Items() }
func (v *Read) Status() Status { return Status(v.rec.status.Value()) }
func (v *Read) ThreadHead() string { return v.rec.threadHead.Value() }
func (v *Read) Valid() string { return v.rec.valid.Value() }
func (v *Read) Encoding() string { return v.rec.encoding.Value() }

// String dumps every field, one per line.
func (v *Read) String() string { return describe(v.Fields()) }

// Update changes an existing message.  Only the body, the date and the
// attachments of a message may be updated, and the server applies one of
// them per request.
type Update struct {
	rec *Record
}

// NewUpdate returns an Update of the message with the given id.
func NewUpdate(id string) *Update {
	u := &Update{rec: newRecord()}
	u.rec.id.Set(id)
	return u
}

func (v *Update) Fields() []field.Field {
	return []field.Field{
		&v.rec.uploads,
		&v.rec.body,
		&v.rec.date,
	}
}

// ID is the message the view targets.
func (v *Update) ID() string { return v.rec.id.Value() }

func (v *Update) SetBody(body string) { v.rec.body.Set(body) }
func (v *Update) Body() string { return v.rec.body.Value() }

func (v *Update) SetDate(date string) { v.rec.date.Set(date) }
func (v *Update) Date() string { return v.rec.date.Value() }

// SetAttachments sets the paths of local files to upload.
func (v *Update) SetAttachments(paths []string) { v.rec.uploads.Set(paths) }
func (v *Update) Attachments() []string { return v.rec.uploads.Paths() }

func (v *Update) String() string { return describe(v.Fields()) }

// Reply answers an existing message.
//
// A reply is posted as a new message whose type and subject come from the
// message replied to: the subject becomes "RE: " and the original subject.
// Subject and date set on a Reply are therefore not sent; they are kept
// so that a Reply can describe every field it shares with Insert.
type Reply struct {
	rec *Record
}

// NewReply returns a Reply to the message with the given id.
func NewReply(id string) *Reply {
	r := &Reply{rec: newRecord()}
	r.rec.id.Set(id)
	return r
}

func (v *Reply) Fields() []field.Field {
	r := v.rec
	return []field.Field{
		&r.uploads,
		&r.author,
		&r.body,
		&r.date,
		&r.options,
		&r.status,
		&r.subject,
		&r.systemsAffected,
	}
}

// ID is the message replied to.
func (v *Reply) ID() string { return v.rec.id.Value() }

func (v *Reply) SetBody(body string) { v.rec.body.Set(body) }
func (v *Reply) Body() string { return v.rec.body.Value() }

func (v *Reply) SetDate(date string) { v.rec.date.Set(date) }
func (v *Reply) Date() string { return v.rec.date.Value() }

func (v *Reply) SetAttachments(paths []string) { v.rec.uploads.Set(paths) }
func (v *Reply) Attachments() []string { return v.rec.uploads.Paths() }

func (v *Reply) SetAuthor(author string) { v.rec.author.Set(author) }
func (v *Reply) Author() string { return v.rec.author.Value() }

func (v *Reply) SetStatus(s Status) { v.rec.status.Set(string(s)) }
func (v *Reply) Status() Status { return Status(v.rec.status.Value()) }

func (v *Reply) SetOptions(options []field.Option) { v.rec.options.Set(options) }
func (v *Reply) Options() []field.Option { return v.rec.options.Options() }

func (v *Reply) SetSystemsAffected(systems []string) { v.rec.systemsAffected.Set(systems) }
func (v *Reply) SystemsAffected() []string { return v.rec.systemsAffected.Values() }

func (v *Reply) SetSubject(subject string) { v.rec.subject.Set(subject) }
func (v *Reply) Subject() string { return v.rec.subject.Value() }

func (v *Reply) String() string { return describe(v.Fields()) }

// Insert creates a new message.  A new message has no id; the server
// assigns one.
type Insert struct {
	rec *Record
}

// NewInsert returns an empty Insert.
func NewInsert() *Insert {
	return &Insert{rec: newRecord()}
}

func (v *Insert) Fields() []field.Field {
	r := v.rec
	return []field.Field{
		&r.uploads,
		&r.author,
		&r.body,
		&r.date,
		&r.msgType,
		&r.options,
		&r.status,
		&r.subject,
		&r.systemsAffected,
	}
}

func (v *Insert) SetBody(body string) { v.rec.body.Set(body) }
func (v *Insert) Body() string { return v.rec.body.Value() }

func (v *Insert) SetDate(date string) { v.rec.date.Set(date) }
func (v *Insert) Date() string { return v.rec.date.Value() }

func (v *Insert) SetAttachments(paths []string) { v.rec.uploads.Set(paths) }
func (v *Insert) Attachments() []string { return v.rec.uploads.Paths() }

func (v *Insert) SetAuthor(author string) { v.rec.author.Set(author) }
func (v *Insert) Author() string { return v.rec.author.Value() }

func (v *Insert) SetStatus(s Status) { v.rec.status.Set(string(s)) }
func (v *Insert) Status() Status { return Status(v.rec.status.Value()) }

func (v *Insert) SetOptions(options []field.Option) { v.rec.options.Set(options) }
func (v *Insert) Options() []field.Option { return v.rec.options.Options() }

func (v *Insert) SetSystemsAffected(systems []string) { v.rec.systemsAffected.Set(systems) }
func (v *Insert) SystemsAffected() []string { return v.rec.systemsAffected.Values() }

func (v *Insert) SetSubject(subject string) { v.rec.subject.Set(subject) }
func (v *Insert) Subject() string { return v.rec.subject.Value() }

func (v *Insert) SetType(t string) { v.rec.msgType.Set(t) }
func (v *Insert) Type() string { return v.rec.msgType.Value() }

func (v *Insert) String() string { return describe(v.Fields()) }

// TypeOption describes one option a message type accepts, as listed by
// the server's configuration endpoints.  Options holds the sub-options
// the option accepts, one level deep.
type TypeOption struct {
	Name           string
	Type           string
	Comment        string
	PossibleValues string
	Options        []TypeOption
}
