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

// Package message provides the logbook message record and the views
// through which the rest of the program reads and writes it.
//
// A Record always carries every field.  What may be written depends on
// the operation at hand, so callers never touch a Record directly: they
// hold one of the views (Read, Update, Reply, Insert), and each view has
// setters only for the fields that operation may send.
package message

import (
	"strings"

	"github.com/matta/elisa/internal/field"
)

// Wire names of the record's fields.
const (
	AttachmentsField     = "attachments"
	AuthorField          = "author"
	BodyField            = "body"
	DateField            = "date"
	EncodingField        = "encoding"
	HasAttachmentsField  = "has_attachments"
	HasRepliesField      = "has_replies"
	HostField            = "host"
	IDField              = "id"
	LogbookField         = "logbook"
	TypeField            = "message_type"
	OptionsField         = "options"
	ReplyToField         = "reply_to"
	StatusField          = "status"
	SubjectField         = "subject"
	SystemsAffectedField = "systems_affected"
	ThreadHeadField      = "thread_head"
	UserNameField        = "username"
	ValidField           = "valid"
)

// Status is the state of a logbook entry.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// View is implemented by every message view.  Fields returns the view's
// fields in the order they go on the wire.
type View interface {
	Fields() []field.Field
}

// Record is one logbook entry.
type Record struct {
	id             field.Scalar
	logbook        field.Scalar
	userName       field.Scalar
	author         field.Scalar
	date           field.Scalar
	subject        field.Scalar
	msgType        field.Scalar
	body           field.Scalar
	host           field.Scalar
	hasReplies     field.Scalar
	replyTo        field.Scalar
	hasAttachments field.Scalar
	status         field.Scalar
	threadHead     field.Scalar
	valid          field.Scalar
	encoding       field.Scalar

	systemsAffected field.StringList
	options         field.OptionTree

	// The two forms of the attachments field.  Inbound records only ever
	// fill attachments; outbound views only ever expose uploads.
	attachments field.Attachments
	uploads     field.Uploads
}

func newRecord() *Record {
	return &Record{
		id:              field.NewScalar(IDField),
		logbook:         field.NewScalar(LogbookField),
		userName:        field.NewScalar(UserNameField),
		author:          field.NewScalar(AuthorField),
		date:            field.NewScalar(DateField),
		subject:         field.NewScalar(SubjectField),
		msgType:         field.NewScalar(TypeField),
		body:            field.NewScalar(BodyField),
		host:            field.NewScalar(HostField),
		hasReplies:      field.NewScalar(HasRepliesField),
		replyTo:         field.NewScalar(ReplyToField),
		hasAttachments:  field.NewScalar(HasAttachmentsField),
		status:          field.NewScalar(StatusField),
		threadHead:      field.NewScalar(ThreadHeadField),
		valid:           field.NewScalar(ValidField),
		encoding:        field.NewScalar(EncodingField),
		systemsAffected: field.NewStringList(SystemsAffectedField),
		options:         field.NewOptionTree(OptionsField),
		attachments:     field.NewAttachments(AttachmentsField),
		uploads:         field.NewUploads(AttachmentsField),
	}
}

// inbound is the full field table as the server sends it, ordered by
// wire name.
func (r *Record) inbound() []field.Field {
	return []field.Field{
		&r.attachments,
		&r.author,
		&r.body,
		&r.date,
		&r.encoding,
		&r.hasAttachments,
		&r.hasReplies,
		&r.host,
		&r.id,
		&r.logbook,
		&r.msgType,
		&r.options,
		&r.replyTo,
		&r.status,
		&r.subject,
		&r.systemsAffected,
		&r.threadHead,
		&r.userName,
		&r.valid,
	}
}

func describe(fields []field.Field) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f.String())
	}
	return strings.Join(lines, "\n")
}
