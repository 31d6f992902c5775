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

// Package options builds the options of a message.
//
// Options nest exactly one level: a Builder holds top level entries, and
// an Entry holds children that cannot have children of their own.
package options

import (
	"strings"

	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/field"
)

// Separator joins a parent option name and a child option name in the
// flat form accepted by Parse.
const Separator = "."

type Builder struct {
	entries []*Entry
}

// Entry is a top level option.
type Entry struct {
	name     string
	value    string
	children []field.Option
}

// Add appends a top level option and returns it so children can be
// added.
func (b *Builder) Add(name, value string) *Entry {
	e := &Entry{name: name, value: value}
	b.entries = append(b.entries, e)
	return e
}

// Add appends a child option.
func (e *Entry) Add(name, value string) {
	e.children = append(e.children, field.Option{Name: name, Value: value})
}

// Options returns the options built so far.  Entries without children
// carry no nested options.
func (b *Builder) Options() []field.Option {
	if len(b.entries) == 0 {
		return nil
	}
	out := make([]field.Option, 0, len(b.entries))
	for _, e := range b.entries {
		opt := field.Option{Name: e.name, Value: e.value}
		if len(e.children) > 0 {
			opt.Options = append([]field.Option(nil), e.children...)
		}
		out = append(out, opt)
	}
	return out
}

type pair struct {
	parent, name, value string
}

// Parse builds options from "name=value" and "parent.name=value" pairs,
// as typed on a command line.  Names and values are trimmed.  A child may
// be given before its parent, but its parent must be given somewhere.
// Options keep the order in which they were given.
func Parse(args []string) ([]field.Option, error) {
	var pairs []pair
	for _, arg := range args {
		kv := strings.Split(strings.TrimSpace(arg), "=")
		if len(kv) != 2 || strings.TrimSpace(kv[1]) == "" {
			return nil, apierr.Argumentf("invalid option %q, want name=value", arg)
		}
		name, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		p := pair{name: name, value: value}
		if i := strings.Index(name, Separator); i != -1 {
			p.parent, p.name = name[:i], name[i+len(Separator):]
			if strings.Contains(p.name, Separator) {
				return nil, apierr.Argumentf("option %q nests more than two levels deep", name)
			}
			if p.parent == "" {
				return nil, apierr.Argumentf("option %q has an empty parent name", name)
			}
		}
		if p.name == "" {
			return nil, apierr.Argumentf("option %q has an empty name", arg)
		}
		pairs = append(pairs, p)
	}

	var b Builder
	parents := make(map[string]*Entry)
	for _, p := range pairs {
		if p.parent == "" {
			parents[p.name] = b.Add(p.name, p.value)
		}
	}
	for _, p := range pairs {
		if p.parent == "" {
			continue
		}
		e, ok := parents[p.parent]
		if !ok {
			return nil, apierr.Argumentf("option %s%s%s has no parent option %q",
				p.parent, Separator, p.name, p.parent)
		}
		e.Add(p.name, p.value)
	}
	return b.Options(), nil
}
