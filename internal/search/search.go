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

// Package search holds the criteria of a message search.
package search

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/matta/elisa/internal/field"
)

// Criteria filters the messages returned by a search.  Every criterion is
// optional; the zero value matches everything the server is willing to
// return.
type Criteria struct {
	limit           field.Scalar
	page            field.Scalar
	userName        field.Scalar
	author          field.Scalar
	systemsAffected field.Scalar
	msgType         field.Scalar
	options         field.Scalar
	subject         field.Scalar
	status          field.Scalar
	body            field.Scalar
	since           field.Scalar
	until           field.Scalar
	interval        field.Scalar
}

func New() *Criteria {
	return &Criteria{
		limit:           field.NewScalar("limit"),
		page:            field.NewScalar("page"),
		userName:        field.NewScalar("userName"),
		author:          field.NewScalar("author"),
		systemsAffected: field.NewScalar("systems_affected"),
		msgType:         field.NewScalar("message_type"),
		options:         field.NewScalar("options"),
		subject:         field.NewScalar("subject"),
		status:          field.NewScalar("status"),
		body:            field.NewScalar("body"),
		since:           field.NewScalar("from"),
		until:           field.NewScalar("to"),
		interval:        field.NewScalar("month_interval"),
	}
}

func (c *Criteria) fields() []*field.Scalar {
	return []*field.Scalar{
		&c.limit,
		&c.page,
		&c.userName,
		&c.author,
		&c.systemsAffected,
		&c.msgType,
		&c.options,
		&c.subject,
		&c.status,
		&c.body,
		&c.since,
		&c.until,
		&c.interval,
	}
}

// SetLimit sets the number of entries returned.  The server defaults to
// 100.
func (c *Criteria) SetLimit(n int) { c.limit.Set(strconv.Itoa(n)) }

// SetPage selects a page of results.
func (c *Criteria) SetPage(n int) { c.page.Set(strconv.Itoa(n)) }

func (c *Criteria) SetUserName(s string) { c.userName.Set(s) }
func (c *Criteria) SetAuthor(s string) { c.author.Set(s) }
func (c *Criteria) SetSystemsAffected(s string) { c.systemsAffected.Set(s) }
func (c *Criteria) SetType(s string) { c.msgType.Set(s) }
func (c *Criteria) SetOptions(s string) { c.options.Set(s) }
func (c *Criteria) SetSubject(s string) { c.subject.Set(s) }
func (c *Criteria) SetStatus(s string) { c.status.Set(s) }
func (c *Criteria) SetBody(s string) { c.body.Set(s) }

// SetSince sets the earliest date of the messages returned.
func (c *Criteria) SetSince(date string) { c.since.Set(date) }

// SetUntil sets the latest date of the messages returned.
func (c *Criteria) SetUntil(date string) { c.until.Set(date) }

// SetInterval restricts the search to the given number of months.
func (c *Criteria) SetInterval(months int) { c.interval.Set(strconv.Itoa(months)) }

// Since returns the earliest date set with SetSince, or "".
func (c *Criteria) Since() string { return c.since.Value() }

// Values returns the criteria that have been set, keyed by query
// parameter name.  A criterion set to "" is still sent.
func (c *Criteria) Values() url.Values {
	v := url.Values{}
	for _, f := range c.fields() {
		if s, ok := f.Lookup(); ok {
			v.Set(f.Name(), s)
		}
	}
	return v
}

func (c *Criteria) String() string {
	var lines []string
	for _, f := range c.fields() {
		lines = append(lines, f.String())
	}
	return strings.Join(lines, "\n")
}
