// Package configuration implements the project-configuration pipeline:
// recursive subfile expansion, schema validation, and materialization of the
// document tree into a typed project graph via a tag-keyed decoder registry.
package configuration

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
)

// Document is a fully expanded configuration document tree. Once returned by
// the resolver it contains no unresolved inclusion markers.
type Document struct {
	// Path is the originating file the document was read from.
	Path string
	Root *Element
}

// Element is a single node of the document tree.
type Element struct {
	Name     string
	Attrs    map[string]string
	Children []*Element
	Text     string
	// Line is the 1-based line number of the start tag in its source file.
	Line int
}

// Attr returns the attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// ChildrenNamed returns all direct children with the given element name.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first direct child with the given name, or nil.
func (e *Element) FirstChild(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// parseDocument reads a markup stream into an element tree. The path is used
// only for error context.
func parseDocument(r io.Reader, path string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, bcerrors.MalformedDocument(path, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *Element
	var stack []*Element

	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, bcerrors.MalformedDocument(path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:  t.Name.Local,
				Attrs: make(map[string]string, len(t.Attr)),
				Line:  lineForOffset(data, offset),
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, bcerrors.MalformedDocument(path, fmt.Errorf("multiple root elements"))
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				if text := strings.TrimSpace(string(t)); text != "" {
					cur := stack[len(stack)-1]
					if cur.Text != "" {
						cur.Text += " "
					}
					cur.Text += text
				}
			}
		}
	}

	if root == nil {
		return nil, bcerrors.MalformedDocument(path, fmt.Errorf("document has no root element"))
	}
	return &Document{Path: path, Root: root}, nil
}

// lineForOffset converts a byte offset into a 1-based line number.
func lineForOffset(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return 1 + bytes.Count(data[:offset], []byte{'\n'})
}
