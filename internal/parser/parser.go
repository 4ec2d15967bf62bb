// Package parser splits a note into YAML front matter and body.
package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatterRe matches an optional BOM, an opening "---" line, the metadata
// block and the smallest closing "---" line, followed by the body.
var frontMatterRe = regexp.MustCompile(`(?s)^\x{FEFF}?---[ \t]*\r?\n(?:(.*?)\r?\n)??---[ \t]*\r?\n(.*)\z`)

// Document is the parse result of one note. It is never mutated; parse the
// new raw text again instead.
type Document struct {
	Path           string
	Raw            string
	Metadata       map[string]any
	Body           string
	Description    string
	HasFrontMatter bool
}

// Load reads the note at path and parses it. Read errors are returned as is
// (wrapped); parse problems never are.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", path, err)
	}
	return Parse(path, data), nil
}

// Parse builds a Document from raw note bytes. Missing or malformed front
// matter degrades to metadata {note: path} and the whole text as body.
func Parse(path string, data []byte) *Document {
	raw := string(data)
	doc := &Document{
		Path:     path,
		Raw:      raw,
		Metadata: map[string]any{"note": path},
		Body:     raw,
	}

	m := frontMatterRe.FindStringSubmatch(raw)
	if m == nil {
		return doc
	}

	res := decodeMetadata(m[1])
	if !res.ok {
		return doc
	}
	res.meta["note"] = path

	doc.Metadata = res.meta
	doc.Body = stripLeadingNewline(m[2])
	doc.HasFrontMatter = true
	doc.Description = describe(res.meta)
	return doc
}

// decoded is the outcome of decoding a metadata block: either a mapping
// (ok) or the signal to fall back to minimal metadata.
type decoded struct {
	meta map[string]any
	ok   bool
}

func decodeMetadata(block string) decoded {
	var v any
	if err := yaml.Unmarshal([]byte(block), &v); err != nil {
		return decoded{}
	}
	switch m := v.(type) {
	case map[string]any:
		return decoded{meta: m, ok: true}
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return decoded{meta: out, ok: true}
	default:
		return decoded{}
	}
}

func stripLeadingNewline(body string) string {
	switch {
	case len(body) >= 2 && body[:2] == "\r\n":
		return body[2:]
	case len(body) >= 1 && body[0] == '\n':
		return body[1:]
	}
	return body
}

func describe(meta map[string]any) string {
	v, ok := meta["description"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Format returns the note's declared "format" field, or "".
func (d *Document) Format() string {
	if s, ok := d.Metadata["format"].(string); ok {
		return s
	}
	return ""
}

// Placeholders returns the note's "placeholders" mapping, or nil.
func (d *Document) Placeholders() map[string]any {
	return PlaceholdersOf(d.Metadata)
}

// PlaceholdersOf extracts the "placeholders" mapping from metadata.
func PlaceholdersOf(meta map[string]any) map[string]any {
	switch p := meta["placeholders"].(type) {
	case map[string]any:
		return p
	case map[any]any:
		out := make(map[string]any, len(p))
		for k, v := range p {
			out[fmt.Sprint(k)] = v
		}
		return out
	}
	return nil
}

// MetadataYAML renders the metadata as YAML with sorted keys, without a
// trailing newline.
func (d *Document) MetadataYAML() (string, error) {
	out, err := yaml.Marshal(d.Metadata)
	if err != nil {
		return "", fmt.Errorf("parser: encode metadata: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}
