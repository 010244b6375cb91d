package configuration

import (
	"fmt"
	"sort"

	bcerrors "git.home.luguber.info/inful/buildcontrol/internal/errors"
)

// Decoder materializes one element into its typed node. Decoders receive the
// materializer so they can recurse into typed children, and the element's
// document location for error context.
type Decoder func(m *Materializer, el *Element, location string) (any, error)

// Registry maps document tag names to decoders. It is populated explicitly at
// process start; no runtime type discovery is involved.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry creates an empty decoder registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// Register binds a tag name to a decoder. Re-registering a tag replaces the
// previous decoder.
func (r *Registry) Register(tag string, d Decoder) {
	r.decoders[tag] = d
}

// Tags returns the registered tag names, sorted.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.decoders))
	for tag := range r.decoders {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Materializer converts a validated document into the typed project graph.
type Materializer struct {
	registry *Registry
}

// NewMaterializer creates a materializer over the given registry.
func NewMaterializer(registry *Registry) *Materializer {
	return &Materializer{registry: registry}
}

// Materialize decodes the document's root element. The concrete type of the
// result is whatever the root tag's decoder produces.
func (m *Materializer) Materialize(doc *Document) (any, error) {
	return m.Decode(doc.Root, doc.Root.Name)
}

// Decode materializes a single element by tag dispatch. Children are decoded
// by the element's own decoder before the node is finalized.
func (m *Materializer) Decode(el *Element, location string) (any, error) {
	dec, ok := m.registry.decoders[el.Name]
	if !ok {
		return nil, bcerrors.UnknownNode(el.Name, location)
	}
	node, err := dec(m, el, location)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// DecodeChildren materializes every direct child of el, in document order.
func (m *Materializer) DecodeChildren(el *Element, location string) ([]any, error) {
	nodes := make([]any, 0, len(el.Children))
	ordinals := map[string]int{}
	for _, child := range el.Children {
		ordinals[child.Name]++
		childLoc := fmt.Sprintf("%s/%s[%d]", location, child.Name, ordinals[child.Name])
		node, err := m.Decode(child, childLoc)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
