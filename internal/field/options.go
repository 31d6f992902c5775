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
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/matta/elisa/internal/apierr"
)

// OptionsTag is the wire name of the options wrapper, at both levels.
const OptionsTag = "options"

// Option is one name/value node of a message's options.  Options holds
// the node's children; only top level nodes may have children.
//
// A nil Options means the node has no nested wrapper at all, while an
// empty non-nil Options encodes an empty nested wrapper.
type Option struct {
	Name    string
	Value   string
	Options []Option
}

// OptionTree holds the options of a message, a tree exactly two levels
// deep:
//
//	<options>
//	  <option>
//	    <name>Trigger_Area</name>
//	    <value>Trigger Group</value>
//	    <options>
//	      <option><name>Trigger_Group</name><value>ID</value></option>
//	      <count>1</count>
//	    </options>
//	  </option>
//	  <count>1</count>
//	</options>
//
// The count of each wrapper follows its options.
type OptionTree struct {
	name    string
	options []Option
}

func NewOptionTree(name string) OptionTree {
	return OptionTree{name: name}
}

func (t *OptionTree) Name() string { return t.name }

func (t *OptionTree) Set(options []Option) {
	t.options = options
}

func (t *OptionTree) Options() []Option { return t.options }

func (t *OptionTree) IsSet() bool { return len(t.options) > 0 }

func (t *OptionTree) Encode(e *xml.Encoder) error {
	if len(t.options) == 0 {
		return nil
	}
	end, err := startElement(e, OptionsTag)
	if err != nil {
		return err
	}
	for _, opt := range t.options {
		if err := encodeOption(e, opt, true); err != nil {
			return err
		}
	}
	if err := writeCount(e, len(t.options)); err != nil {
		return err
	}
	return e.EncodeToken(end)
}

func encodeOption(e *xml.Encoder, opt Option, top bool) error {
	if opt.Name == "" {
		return apierr.Formatf("option with value %q has no name", opt.Value)
	}
	if opt.Value == "" {
		return apierr.Formatf("option %q has no value", opt.Name)
	}
	if !top && len(opt.Options) > 0 {
		return apierr.Formatf("option %q nests options more than two levels deep", opt.Name)
	}
	end, err := startElement(e, "option")
	if err != nil {
		return err
	}
	if err := WriteElement(e, "name", opt.Name); err != nil {
		return err
	}
	if err := WriteElement(e, "value", opt.Value); err != nil {
		return err
	}
	if top && opt.Options != nil {
		inner, err := startElement(e, OptionsTag)
		if err != nil {
			return err
		}
		for _, child := range opt.Options {
			if err := encodeOption(e, child, false); err != nil {
				return err
			}
		}
		if err := writeCount(e, len(opt.Options)); err != nil {
			return err
		}
		if err := e.EncodeToken(inner); err != nil {
			return err
		}
	}
	return e.EncodeToken(end)
}

func (t *OptionTree) Decode(n *Node) error {
	var options []Option
	for _, node := range n.FindAll("option") {
		opt, err := decodeOption(node)
		if err != nil {
			return err
		}
		opt.Options = []Option{}
		for _, inner := range node.FindAll(OptionsTag) {
			for _, child := range inner.FindAll("option") {
				c, err := decodeOption(child)
				if err != nil {
					return err
				}
				opt.Options = append(opt.Options, c)
			}
		}
		options = append(options, opt)
	}
	t.options = options
	return nil
}

func decodeOption(n *Node) (Option, error) {
	name := n.Find("name")
	if name == nil || name.Text == "" {
		return Option{}, apierr.Formatf("option without a name")
	}
	value := n.Find("value")
	if value == nil || value.Text == "" {
		return Option{}, apierr.Formatf("option %q without a value", name.Text)
	}
	return Option{Name: name.Text, Value: value.Text}, nil
}

func (t *OptionTree) String() string {
	var sb strings.Builder
	sb.WriteString(label(t.name) + strconv.Itoa(len(t.options)))
	for _, opt := range t.options {
		fmt.Fprintf(&sb, "\n    |---- %-14s: %s", opt.Name, opt.Value)
		for _, child := range opt.Options {
			fmt.Fprintf(&sb, "\n          |---- %-14s: %s", child.Name, child.Value)
		}
	}
	return sb.String()
}
