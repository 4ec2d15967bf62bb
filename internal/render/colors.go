package render

import "strings"

const (
	ansiRed   = "\033[91m"
	ansiBlue  = "\033[94m"
	ansiGreen = "\033[92m"
	ansiReset = "\033[0m"
)

var colorTags = strings.NewReplacer(
	"<red>", ansiRed,
	"<blue>", ansiBlue,
	"<green>", ansiGreen,
	"<end>", ansiReset,
)

// AddColors turns the inline colour tags a note may use into ANSI escapes.
func AddColors(text string) string {
	return colorTags.Replace(text)
}
