package render

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/noteagator/internal/parser"
)

// Mode selects the copy-block style.
type Mode string

// Output modes.
const (
	ModeMarkdown Mode = "markdown"
	ModeSlim     Mode = "slim"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeMarkdown || m == ModeSlim
}

// ResolveMode picks the output mode: an explicit override, then the note's
// declared format (when it names a known mode), then the configured default,
// then markdown.
func ResolveMode(override, noteFormat, configured string) Mode {
	if override != "" {
		return Mode(override)
	}
	if m := Mode(noteFormat); m.Valid() {
		return m
	}
	if configured != "" {
		return Mode(configured)
	}
	return ModeMarkdown
}

// Options control a single render.
type Options struct {
	Mode         string // per-call override, may be empty
	DefaultMode  string // persisted default, may be empty
	Copy         int    // copy block to extract, 0 for none
	Replacements Replacements
}

// Validate validates the options.
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Mode, validation.In(string(ModeMarkdown), string(ModeSlim))),
		validation.Field(&o.DefaultMode, validation.In(string(ModeMarkdown), string(ModeSlim))),
		validation.Field(&o.Copy, validation.Min(0)),
	)
}

// Result is the rendered note.
type Result struct {
	Mode      Mode
	Metadata  string // YAML
	Body      string // annotated body
	CopyFound bool
	Copy      string
}

// MissingCopyMessage is reported when a requested block does not exist.
func MissingCopyMessage(n int) string {
	return fmt.Sprintf("No --copy %d block found.", n)
}

// Render applies colour tags and placeholders to the note body, annotates its
// code blocks in the resolved mode and, if requested, extracts one block.
func Render(doc *parser.Document, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	meta, err := doc.MetadataYAML()
	if err != nil {
		return nil, err
	}

	body := AddColors(doc.Body)
	body = ReplacePlaceholders(body, doc.Placeholders(), opts.Replacements)

	res := &Result{
		Mode:     ResolveMode(opts.Mode, doc.Format(), opts.DefaultMode),
		Metadata: meta,
	}

	switch res.Mode {
	case ModeSlim:
		res.Body = AddCopyMarkersSlim(body)
		if opts.Copy > 0 {
			res.Copy = ExtractCopyBlock(res.Body, opts.Copy)
			res.CopyFound = res.Copy != ""
		}
	default:
		res.Body = AddCopyMarkersMarkdown(body)
		if opts.Copy > 0 {
			res.Copy, res.CopyFound = CodeByNumberMarkdown(res.Body, opts.Copy)
		}
	}
	return res, nil
}
