package index

import (
	"github.com/starford/noteagator/internal/parser"
	"github.com/starford/noteagator/internal/render"
)

// NoteDescription returns the colourised front matter description of the note
// at path. Any failure to read the note yields "".
func NoteDescription(path string) string {
	doc, err := parser.Load(path)
	if err != nil {
		return ""
	}
	return render.AddColors(doc.Description)
}
