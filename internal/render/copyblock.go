// Package render turns a parsed note body into terminal output: colour tags,
// placeholder substitution and numbered copy blocks in markdown or slim style.
package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const fence = "```"

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(.*?)\n(.*?)\n```")
	markedBlockRe = regexp.MustCompile("(?s)--copy (\\d+)\n```(.*?)\n(.*?)\n```")
)

// AddCopyMarkersMarkdown numbers every fenced block in order of appearance and
// puts a "--copy N" line in front of its opening fence. Text outside the
// blocks is left unchanged.
func AddCopyMarkersMarkdown(body string) string {
	matches := fencedBlockRe.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body
	}

	var b strings.Builder
	last := 0
	for i, m := range matches {
		lang := strings.TrimSpace(body[m[2]:m[3]])
		content := body[m[4]:m[5]]
		b.WriteString(body[last:m[0]])
		fmt.Fprintf(&b, "--copy %d\n%s%s\n%s\n%s", i+1, fence, lang, content, fence)
		last = m[1]
	}
	b.WriteString(body[last:])
	return b.String()
}

// CodeByNumberMarkdown returns the content of block n from text already
// annotated by AddCopyMarkersMarkdown. ok is false when no block has that number.
func CodeByNumberMarkdown(text string, n int) (code string, ok bool) {
	for _, m := range markedBlockRe.FindAllStringSubmatch(text, -1) {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if num == n {
			return m[3], true
		}
	}
	return "", false
}

func copyStartPrefix(n int) string {
	return fmt.Sprintf("--copy %d $ ", n)
}

func copyContPrefix(n int) string {
	return strings.Repeat(" ", len(fmt.Sprintf("--copy %d ", n))) + "$ "
}

// AddCopyMarkersSlim drops fence lines and prefixes code lines with a
// shell-prompt marker: "--copy N $ " on the first line of block N and an
// aligned "$ " on the rest. Blocks are counted from 1 as they close.
func AddCopyMarkersSlim(body string) string {
	var out []string
	inCode := false
	first := false
	block := 1

	for _, line := range splitLines(body) {
		if strings.HasPrefix(line, fence) {
			if !inCode {
				inCode = true
				first = true
			} else {
				inCode = false
				block++
			}
			continue
		}

		switch {
		case !inCode:
			out = append(out, line)
		case first:
			out = append(out, copyStartPrefix(block)+line)
			first = false
		default:
			out = append(out, copyContPrefix(block)+line)
		}
	}
	return strings.Join(out, "\n")
}

// ExtractCopyBlock returns block n of slim text with its prefixes removed,
// lines joined by "\n". Collection stops at the first line that is not a
// continuation of the block, blank lines included. A missing block yields "".
func ExtractCopyBlock(slim string, n int) string {
	start := copyStartPrefix(n)
	cont := copyContPrefix(n)

	var buf []string
	collecting := false
	for _, line := range splitLines(slim) {
		if !collecting {
			if strings.HasPrefix(line, start) {
				collecting = true
				buf = append(buf, line[len(start):])
			}
			continue
		}
		if !strings.HasPrefix(line, cont) {
			break
		}
		buf = append(buf, line[len(cont):])
	}
	return strings.Join(buf, "\n")
}

// splitLines splits on LF or CRLF without yielding a trailing empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
