// Package metadoc models a Markdown note as a YAML frontmatter header plus
// an opaque body, and round-trips it without disturbing user data. The
// header keeps its key order and unknown value shapes; the body is never
// parsed or reformatted.
package metadoc

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultIndent is the indentation width used when none is configured.
const DefaultIndent = 2

const fence = "---"

// ParseError reports a structurally broken frontmatter block. It is the only
// error Parse returns: a document with no frontmatter at all parses fine.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("metadoc: %s: %v", e.Reason, e.Err)
	}
	return "metadoc: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Field is one header entry with its value decoded into plain Go shapes.
type Field struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Document is the in-memory form of a note. It is built per invocation from
// raw text and discarded after serialization; nothing caches it.
type Document struct {
	header    *yaml.Node // mapping node; empty until a key is set
	body      string
	hasHeader bool
}

// Parse splits raw text into header and body. A frontmatter block is
// recognized only when the first line is the fence. An opened but
// unterminated block, or a block that is not a YAML key/value mapping,
// yields a *ParseError; everything else succeeds.
func Parse(raw string) (*Document, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != fence {
		return &Document{header: emptyMapping(), body: raw}, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == fence {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, &ParseError{Reason: "unterminated frontmatter block"}
	}

	block := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, &ParseError{Reason: "invalid frontmatter", Err: err}
	}

	header := emptyMapping()
	if len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return nil, &ParseError{Reason: "frontmatter is not a key/value mapping"}
		}
		header = root
	}

	return &Document{header: header, body: body, hasHeader: true}, nil
}

// Serialize renders the document back to text. Without a header the body is
// returned untouched, so parse-then-serialize of a plain document is
// byte-identical. Sequences render in block form; indent <= 0 falls back to
// DefaultIndent.
func (d *Document) Serialize(indent int) (string, error) {
	if !d.hasHeader {
		return d.body, nil
	}
	if indent <= 0 {
		indent = DefaultIndent
	}

	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	if len(d.header.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(indent)
		if err := enc.Encode(d.header); err != nil {
			return "", fmt.Errorf("metadoc: encode frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("metadoc: encode frontmatter: %w", err)
		}
	}
	buf.WriteString(fence + "\n")
	buf.WriteString(d.body)
	return buf.String(), nil
}

// Body returns the free-form text after the header.
func (d *Document) Body() string { return d.body }

// HasHeader reports whether the document carries a frontmatter block,
// either parsed from the source or created by a setter.
func (d *Document) HasHeader() bool { return d.hasHeader }

// Get returns the scalar value of a header field. ok is false when the key
// is absent or its value is not a scalar.
func (d *Document) Get(key string) (string, bool) {
	i := d.find(key)
	if i < 0 {
		return "", false
	}
	v := d.header.Content[i]
	if v.Kind != yaml.ScalarNode {
		return "", false
	}
	return v.Value, true
}

// Set writes a scalar header field, overwriting any existing value. New keys
// append at the end of the header. It reports whether the stored value
// actually changed.
func (d *Document) Set(key, value string) bool {
	if i := d.find(key); i >= 0 {
		v := d.header.Content[i]
		if v.Kind == yaml.ScalarNode && v.Value == value {
			return false
		}
		d.header.Content[i] = scalar(value)
		return true
	}
	d.append(key, scalar(value))
	return true
}

// SetIfAbsent writes a scalar header field only when the key is missing,
// reporting whether it wrote.
func (d *Document) SetIfAbsent(key, value string) bool {
	if d.find(key) >= 0 {
		return false
	}
	d.append(key, scalar(value))
	return true
}

// Fields returns the header entries in document order with values decoded
// into plain Go shapes. Used by the read-only API and MCP surfaces.
func (d *Document) Fields() []Field {
	c := d.header.Content
	out := make([]Field, 0, len(c)/2)
	for i := 0; i+1 < len(c); i += 2 {
		var v any
		if err := c[i+1].Decode(&v); err != nil {
			v = nil
		}
		out = append(out, Field{Key: c[i].Value, Value: v})
	}
	return out
}

// find returns the index of the value node for key, or -1.
func (d *Document) find(key string) int {
	c := d.header.Content
	for i := 0; i+1 < len(c); i += 2 {
		if c[i].Value == key {
			return i + 1
		}
	}
	return -1
}

func (d *Document) append(key string, value *yaml.Node) {
	d.header.Content = append(d.header.Content, scalar(key), value)
	d.hasHeader = true
}

// setNode replaces (or appends) a header field with an arbitrary node.
func (d *Document) setNode(key string, value *yaml.Node) {
	if i := d.find(key); i >= 0 {
		d.header.Content[i] = value
		return
	}
	d.append(key, value)
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// scalar leaves the tag empty so the encoder can keep plain style for
// values like timestamps that would otherwise be force-quoted, and quote
// only when the content demands it.
func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}
