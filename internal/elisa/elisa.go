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

// Package elisa is a client of the ELisA logbook REST server.
package elisa

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/message"
	"github.com/matta/elisa/internal/search"
	"github.com/matta/elisa/internal/transport"
	"github.com/matta/elisa/internal/xmlcodec"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Doer issues HTTP requests and returns the response body.  A non-2xx
// response must come back as an *apierr.TransportError.
// *transport.Transport is the production implementation.
type Doer interface {
	Get(ctx context.Context, url string) ([]byte, error)
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
	Put(ctx context.Context, url string, body []byte) ([]byte, error)
	Multipart(ctx context.Context, url string, part *transport.Part, paths []string) ([]byte, error)
}

// Client accesses one logbook.  It holds no per request state and may be
// used by several goroutines at once.
type Client struct {
	base    string
	doer    Doer
	codec   *xmlcodec.Codec
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRateLimit limits the client to perSecond requests per second.  Zero
// or less means no limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// New returns a client of the REST API at connection, e.g.
// "https://host/elisa/api/ATLAS/".  Configuration lookups use the API
// root without the logbook name.
func New(connection string, doer Doer, opts ...Option) *Client {
	if !strings.HasSuffix(connection, "/") {
		connection += "/"
	}
	c := &Client{
		base:    connection,
		doer:    doer,
		limiter: rate.NewLimiter(rate.Inf, 0),
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.codec = xmlcodec.New(c.log)
	return c
}

func (c *Client) messageURL(id string) string {
	return c.base + "messages/" + url.PathEscape(id)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.doer.Get(ctx, url)
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.doer.Post(ctx, url, body)
}

func (c *Client) put(ctx context.Context, url string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.doer.Put(ctx, url, body)
}

func (c *Client) multipart(ctx context.Context, url string, part *transport.Part, paths []string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.doer.Multipart(ctx, url, part, paths)
}

// Message returns the message with the given id.
func (c *Client) Message(ctx context.Context, id string) (*message.Read, error) {
	data, err := c.get(ctx, c.messageURL(id)+"/")
	if err != nil {
		return nil, errors.Wrapf(err, "getting message %s", id)
	}
	return c.codec.DecodeMessage(data)
}

// Search returns the messages matching criteria.  A nil criteria matches
// every message.
func (c *Client) Search(ctx context.Context, criteria *search.Criteria) ([]*message.Read, error) {
	var query string
	if criteria != nil {
		query = criteria.Values().Encode()
		c.log.Debugw("searching messages", "query", query)
	}
	data, err := c.get(ctx, c.base+"messages?"+query)
	if err != nil {
		return nil, errors.Wrap(err, "searching messages")
	}
	msgs, err := c.codec.DecodeMessages(data)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("search done", "count", len(msgs))
	return msgs, nil
}

// Insert creates a new message and returns it as stored.
func (c *Client) Insert(ctx context.Context, m *message.Insert) (*message.Read, error) {
	return c.insert(ctx, c.base+"messages/", m)
}

func (c *Client) insert(ctx context.Context, url string, m *message.Insert) (*message.Read, error) {
	doc, err := c.codec.Encode(m, xmlcodec.InputMessageRoot)
	if err != nil {
		return nil, err
	}
	var data []byte
	if paths := m.Attachments(); len(paths) > 0 {
		data, err = c.multipart(ctx, url, &transport.Part{Name: "message", Content: doc}, paths)
	} else {
		data, err = c.post(ctx, url, doc)
	}
	if err != nil {
		return nil, errors.Wrap(err, "inserting message")
	}
	return c.codec.DecodeMessage(data)
}

// Update changes one aspect of a message, picked in this order: the body
// (with any attachments), else the date, else the attachments alone.
// When none is set nothing is sent, and Update returns nil and no error.
func (c *Client) Update(ctx context.Context, m *message.Update) (*message.Read, error) {
	base := c.messageURL(m.ID())
	paths := m.Attachments()

	var data []byte
	var err error
	switch {
	case m.Body() != "":
		doc, encErr := c.codec.Encode(m, xmlcodec.MessageBodyRoot)
		if encErr != nil {
			return nil, encErr
		}
		if len(paths) > 0 {
			data, err = c.multipart(ctx, base+"/body", &transport.Part{Name: "body", Content: doc}, paths)
		} else {
			data, err = c.put(ctx, base+"/body", doc)
		}
	case m.Date() != "":
		data, err = c.put(ctx, base+"/date", []byte(m.Date()))
	case len(paths) > 0:
		data, err = c.multipart(ctx, base+"/attachments", nil, paths)
	default:
		c.log.Debugw("nothing to update", "id", m.ID())
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "updating message %s", m.ID())
	}
	return c.codec.DecodeMessage(data)
}

// Reply posts r as a reply to the message r targets.  The reply takes the
// message type of the original and its subject prefixed with "RE: ".  The
// systems affected and options of the original are used unless r sets
// its own.
func (c *Client) Reply(ctx context.Context, r *message.Reply) (*message.Read, error) {
	orig, err := c.Message(ctx, r.ID())
	if err != nil {
		return nil, err
	}

	m := message.NewInsert()
	m.SetAuthor(r.Author())
	m.SetType(orig.Type())
	if s := r.SystemsAffected(); len(s) > 0 {
		m.SetSystemsAffected(s)
	} else {
		m.SetSystemsAffected(orig.SystemsAffected())
	}
	if o := r.Options(); len(o) > 0 {
		m.SetOptions(o)
	} else {
		m.SetOptions(orig.Options())
	}
	m.SetSubject("RE: " + orig.Subject())
	m.SetBody(r.Body())
	if s := r.Status(); s != "" {
		m.SetStatus(s)
	}
	m.SetAttachments(r.Attachments())

	return c.insert(ctx, c.messageURL(r.ID()), m)
}

// MessageTypes lists the message types of the logbook.
func (c *Client) MessageTypes(ctx context.Context) ([]string, error) {
	data, err := c.get(ctx, c.base+"mt")
	if err != nil {
		return nil, errors.Wrap(err, "getting message types")
	}
	return c.codec.DecodeTypes(data)
}

// TypeOptions lists the options of a message type.  A type without
// options, or one the server does not know, has none.
func (c *Client) TypeOptions(ctx context.Context, msgType string) ([]message.TypeOption, error) {
	data, err := c.get(ctx, c.base+"mt/"+url.PathEscape(msgType)+"/opt")
	if apierr.IsStatus(err, http.StatusNotFound) {
		c.log.Debugw("message type has no options", "type", msgType)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting options of message type %q", msgType)
	}
	return c.codec.DecodeTypeOptions(data)
}

// SystemsAffected lists every system a message may affect.
func (c *Client) SystemsAffected(ctx context.Context) ([]string, error) {
	data, err := c.get(ctx, c.base+"sa")
	if err != nil {
		return nil, errors.Wrap(err, "getting systems affected")
	}
	return c.codec.DecodeSystemsAffected(data)
}

// PredefinedSystemsAffected lists the systems affected preselected for a
// message type.  A 404 means there are none.
func (c *Client) PredefinedSystemsAffected(ctx context.Context, msgType string) ([]string, error) {
	data, err := c.get(ctx, c.base+"mt/"+url.PathEscape(msgType)+"/sa")
	if apierr.IsStatus(err, http.StatusNotFound) {
		c.log.Debugw("message type has no predefined systems affected", "type", msgType)
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting systems affected of message type %q", msgType)
	}
	return c.codec.DecodeSystemsAffected(data)
}

// Attachment is the content of one file attached to a message.
type Attachment struct {
	ID       string
	Filename string
	Content  []byte
}

// Attachment returns the content of an attachment.
func (c *Client) Attachment(ctx context.Context, msgID, attachmentID string) ([]byte, error) {
	data, err := c.get(ctx, c.messageURL(msgID)+"/attachments/"+url.PathEscape(attachmentID))
	if err != nil {
		return nil, errors.Wrapf(err, "getting attachment %s of message %s", attachmentID, msgID)
	}
	return data, nil
}

// Attachments returns every attachment of m, in order.
func (c *Client) Attachments(ctx context.Context, m *message.Read) ([]Attachment, error) {
	var out []Attachment
	for _, a := range m.Attachments() {
		content, err := c.Attachment(ctx, m.ID(), a.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Attachment{ID: a.ID, Filename: a.Filename, Content: content})
	}
	return out, nil
}
