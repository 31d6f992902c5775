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
	"strconv"

	"github.com/matta/elisa/internal/apierr"
)

// Node is one element of a parsed XML document.  Text holds the
// element's own character data, untouched; Nodes holds its child
// elements in document order.
type Node struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Nodes   []Node `xml:",any"`
}

// Parse parses an XML document into a tree of nodes rooted at the
// document element.
func Parse(data []byte) (*Node, error) {
	var root Node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, apierr.Formatf("malformed XML document: %v", err)
	}
	return &root, nil
}

// Tag returns the element's local name.
func (n *Node) Tag() string {
	return n.XMLName.Local
}

// Find returns the first child element named tag, or nil.
func (n *Node) Find(tag string) *Node {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == tag {
			return &n.Nodes[i]
		}
	}
	return nil
}

// FindAll returns every child element named tag, in document order.
func (n *Node) FindAll(tag string) []*Node {
	var found []*Node
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == tag {
			found = append(found, &n.Nodes[i])
		}
	}
	return found
}

// WriteElement writes <tag>text</tag>.
func WriteElement(e *xml.Encoder, tag, text string) error {
	start := xml.StartElement{Name: xml.Name{Local: tag}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.EncodeToken(xml.CharData(text)); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

func writeCount(e *xml.Encoder, n int) error {
	return WriteElement(e, "count", strconv.Itoa(n))
}

func startElement(e *xml.Encoder, tag string) (xml.EndElement, error) {
	start := xml.StartElement{Name: xml.Name{Local: tag}}
	return start.End(), e.EncodeToken(start)
}
