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

// Package xmlcodec converts message views to and from the XML documents
// exchanged with the logbook server.
package xmlcodec

import (
	"bytes"
	"encoding/xml"

	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/field"
	"github.com/matta/elisa/internal/message"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Root element names.
const (
	MessageRoot      = "message"
	MessagesRoot     = "messages"
	InputMessageRoot = "input_message"
	MessageBodyRoot  = "message_body"
)

type Codec struct {
	log *zap.SugaredLogger
}

// New returns a Codec that reports skipped elements to log.  A nil log
// discards them.
func New(log *zap.SugaredLogger) *Codec {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Codec{log: log}
}

// Encode writes the populated fields of v, in the view's order, inside an
// element named root.  The output has no XML declaration and no
// indentation.
func (c *Codec) Encode(v message.View, root string) ([]byte, error) {
	var buf bytes.Buffer
	e := xml.NewEncoder(&buf)
	start := xml.StartElement{Name: xml.Name{Local: root}}
	if err := e.EncodeToken(start); err != nil {
		return nil, apierr.Formatf("%v", err)
	}
	for _, f := range v.Fields() {
		if err := f.Encode(e); err != nil {
			var fe *apierr.FormatError
			if errors.As(err, &fe) {
				return nil, errors.Wrapf(err, "encoding %s", f.Name())
			}
			return nil, apierr.Formatf("encoding %s: %v", f.Name(), err)
		}
	}
	if err := e.EncodeToken(start.End()); err != nil {
		return nil, apierr.Formatf("%v", err)
	}
	if err := e.Flush(); err != nil {
		return nil, apierr.Formatf("%v", err)
	}
	return buf.Bytes(), nil
}

// DecodeMessages decodes either a single message document or a
// collection of messages.
func (c *Codec) DecodeMessages(data []byte) ([]*message.Read, error) {
	root, err := field.Parse(data)
	if err != nil {
		return nil, err
	}
	if root.Tag() == MessageRoot {
		m, err := c.decodeMessage(root)
		if err != nil {
			return nil, err
		}
		return []*message.Read{m}, nil
	}
	var msgs []*message.Read
	for _, node := range root.FindAll(MessageRoot) {
		m, err := c.decodeMessage(node)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// DecodeMessage decodes a document holding one message.  When given a
// collection, it returns the first message.
func (c *Codec) DecodeMessage(data []byte) (*message.Read, error) {
	msgs, err := c.DecodeMessages(data)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, apierr.Formatf("document holds no message")
	}
	return msgs[0], nil
}

func (c *Codec) decodeMessage(node *field.Node) (*message.Read, error) {
	m := message.NewRead()
	for i := range node.Nodes {
		child := &node.Nodes[i]
		f, ok := m.Field(child.Tag())
		if !ok {
			c.log.Warnw("skipping unknown element in message", "tag", child.Tag())
			continue
		}
		if err := f.Decode(child); err != nil {
			return nil, errors.Wrapf(err, "decoding %s", child.Tag())
		}
	}
	return m, nil
}

// DecodeTypes decodes the list of message types the logbook accepts.
func (c *Codec) DecodeTypes(data []byte) ([]string, error) {
	return decodeTexts(data, "message_type")
}

// DecodeSystemsAffected decodes a list of systems affected.
func (c *Codec) DecodeSystemsAffected(data []byte) ([]string, error) {
	return decodeTexts(data, field.SystemAffectedTag)
}

func decodeTexts(data []byte, tag string) ([]string, error) {
	root, err := field.Parse(data)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range root.FindAll(tag) {
		out = append(out, n.Text)
	}
	return out, nil
}

// DecodeTypeOptions decodes the options a message type accepts.  A key
// missing from the document decodes as "".
func (c *Codec) DecodeTypeOptions(data []byte) ([]message.TypeOption, error) {
	root, err := field.Parse(data)
	if err != nil {
		return nil, err
	}
	var opts []message.TypeOption
	for _, node := range root.FindAll("option") {
		opt := typeOption(node)
		for _, inner := range node.FindAll(field.OptionsTag) {
			for _, child := range inner.FindAll("option") {
				opt.Options = append(opt.Options, typeOption(child))
			}
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

func typeOption(n *field.Node) message.TypeOption {
	text := func(tag string) string {
		if c := n.Find(tag); c != nil {
			return c.Text
		}
		return ""
	}
	return message.TypeOption{
		Name:           text("name"),
		Type:           text("type"),
		Comment:        text("comment"),
		PossibleValues: text("possible_values"),
	}
}
