// Package store persists the engine's collections as YAML documents on an fs.Filesystem.
package store

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openshift-assisted/versions-management/errors"
	"github.com/openshift-assisted/versions-management/fs"
)

// IdentityFunc returns the key identifying a sequence item across rewrites.
// An empty key means the item has no identity and is never matched.
type IdentityFunc func(item *yaml.Node) string

// KeyPath returns an IdentityFunc reading the scalar at the given mapping path,
// e.g. KeyPath("metadata", "id").
func KeyPath(keys ...string) IdentityFunc {
	return func(item *yaml.Node) string {
		node := item
		for _, k := range keys {
			node = mappingValue(node, k)
			if node == nil {
				return ""
			}
		}
		if node.Kind != yaml.ScalarNode {
			return ""
		}
		return node.Value
	}
}

// Document is a parsed YAML document whose top level is a mapping of named lists.
//
// The parsed node tree is kept between reads and writes. Encoding a list merges the new
// content into the existing nodes, so comments, key order and keys the engine does not
// know about survive a round trip.
type Document struct {
	root *yaml.Node
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		root: &yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		},
	}
}

// ParseDocument parses data. Empty input yields an empty document.
func ParseDocument(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return NewDocument(), nil
	}

	top := root.Content[0]
	switch {
	case top.Kind == yaml.MappingNode:
	case top.Kind == yaml.ScalarNode && top.Tag == "!!null":
		root.Content[0] = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	default:
		return nil, fmt.Errorf("parse yaml: top level must be a mapping, got %s", kindName(top.Kind))
	}

	return &Document{root: &root}, nil
}

// LoadDocument reads and parses path from fsys. A missing file yields an empty document.
func LoadDocument(fsys fs.Filesystem, path string) (*Document, error) {
	ctx := map[string]any{"path": path}

	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodePersistenceFailed, "failed to stat document", ctx)
	}
	if !exists {
		return NewDocument(), nil
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodePersistenceFailed, "failed to read document", ctx)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodePersistenceFailed, "malformed document", ctx)
	}
	return doc, nil
}

// Decode decodes the list stored under key into out, which must be a pointer to a
// slice. A missing or null key leaves out untouched.
func (d *Document) Decode(key string, out any) error {
	node := mappingValue(d.top(), key)
	if node == nil || isNull(node) {
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("key %q: expected a list, got %s", key, kindName(node.Kind))
	}
	if err := node.Decode(out); err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}
	return nil
}

// Encode stores v under key. Items of the new list are matched with existing items by
// identity and merged into them; unmatched items are encoded fresh.
//
// Keys declared by v's type are owned by the codec: an owned key that the new content
// no longer carries, such as a cleared omitempty field, is removed. Other keys are kept.
func (d *Document) Encode(key string, v any, identity IdentityFunc) error {
	m := merger{owned: ownedKeys(reflect.TypeOf(v))}

	var fresh yaml.Node
	if err := fresh.Encode(v); err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}

	top := d.top()
	existing := mappingValue(top, key)
	if existing == nil {
		top.Content = append(top.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&fresh,
		)
		return nil
	}

	m.node(existing, &fresh, identity)
	return nil
}

// Bytes renders the document with two-space indentation.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("render yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Save renders the document and writes it to path.
func (d *Document) Save(fsys fs.Filesystem, path string) error {
	ctx := map[string]any{"path": path}

	data, err := d.Bytes()
	if err != nil {
		return errors.WrapWithContext(err, errors.CodePersistenceFailed, "failed to render document", ctx)
	}
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithContext(err, errors.CodePersistenceFailed, "failed to write document", ctx)
	}
	return nil
}

func (d *Document) top() *yaml.Node {
	return d.root.Content[0]
}

// merger rewrites existing nodes in place so they render like new content.
type merger struct {
	owned map[string]struct{}
}

// node rewrites dst so it renders like src while keeping dst's comments and, for
// mappings, keys the codec does not own.
func (m merger) node(dst, src *yaml.Node, identity IdentityFunc) {
	switch {
	case dst.Kind == yaml.MappingNode && src.Kind == yaml.MappingNode:
		m.mapping(dst, src)
	case dst.Kind == yaml.SequenceNode && src.Kind == yaml.SequenceNode:
		m.sequence(dst, src, identity)
	default:
		head, line, foot := dst.HeadComment, dst.LineComment, dst.FootComment
		*dst = *src
		dst.HeadComment, dst.LineComment, dst.FootComment = head, line, foot
	}
}

func (m merger) mapping(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, value := src.Content[i], src.Content[i+1]
		if existing := mappingValue(dst, key.Value); existing != nil {
			m.node(existing, value, nil)
			continue
		}
		dst.Content = append(dst.Content, key, value)
	}

	kept := dst.Content[:0]
	for i := 0; i+1 < len(dst.Content); i += 2 {
		key := dst.Content[i].Value
		if _, owned := m.owned[key]; owned && mappingValue(src, key) == nil {
			continue
		}
		kept = append(kept, dst.Content[i], dst.Content[i+1])
	}
	dst.Content = kept
}

// sequence orders items like src. Nested sequences carry no identity, so they
// are matched by position.
func (m merger) sequence(dst, src *yaml.Node, identity IdentityFunc) {
	byID := make(map[string]*yaml.Node)
	if identity != nil {
		for _, item := range dst.Content {
			if id := identity(item); id != "" {
				byID[id] = item
			}
		}
	}

	merged := make([]*yaml.Node, 0, len(src.Content))
	for i, item := range src.Content {
		var existing *yaml.Node
		switch {
		case identity != nil:
			if id := identity(item); id != "" {
				existing = byID[id]
				delete(byID, id)
			}
		case i < len(dst.Content):
			existing = dst.Content[i]
		}

		if existing == nil {
			merged = append(merged, item)
			continue
		}
		m.node(existing, item, nil)
		merged = append(merged, existing)
	}

	dst.Content = merged
	dst.Style = src.Style
}

// ownedKeys collects the YAML keys declared by the structs reachable from t.
func ownedKeys(t reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{})
	seen := make(map[reflect.Type]bool)

	var walk func(reflect.Type)
	walk = func(t reflect.Type) {
		for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Map {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct || seen[t] {
			return
		}
		seen[t] = true

		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, opts, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				continue
			}
			if !strings.Contains(opts, "inline") {
				if name == "" {
					name = strings.ToLower(f.Name)
				}
				keys[name] = struct{}{}
			}
			walk(f.Type)
		}
	}

	if t != nil {
		walk(t)
	}
	return keys
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
