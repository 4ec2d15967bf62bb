package mcpserver

// NoteFormatContract describes the note conventions the renderer understands.
const NoteFormatContract = `# noteagator Note Format Contract

A note is any text file under the notebook base. Front matter is optional.

## Structure

` + "```" + `markdown
---
description: Deploy the API     # OPTIONAL: shown next to the file in listings
format: slim                    # OPTIONAL: markdown | slim, the default output mode
placeholders:                   # OPTIONAL: keys i, j, k, u, d, p
  i: HOST                       # literal text replaced by the value given for i
---

Body text.
` + "```" + `

## Rules

1. Front matter opens with ` + "`---`" + ` on the first line and closes at the next
   ` + "`---`" + ` line. It must decode to a YAML mapping; anything
   else is treated as body.
2. ` + "`note`" + ` is reserved: it always holds the note's absolute path.
3. Placeholders are replaced literally, every occurrence, in the order
   i, j, k, u, d, p. A later key can rewrite text produced by an earlier one.
4. Colour tags ` + "`<red>`" + `, ` + "`<blue>`" + `, ` + "`<green>`" + ` and ` + "`<end>`" + ` become terminal colours.
5. Fenced code blocks are numbered from 1 in order of appearance. In markdown
   mode each block is preceded by a ` + "`--copy N`" + ` line; in slim mode the fences
   are dropped and each line is prefixed with ` + "`--copy N $ `" + ` (first line) or
   aligned ` + "`$ `" + ` (continuation lines).
6. A block can be extracted by number (render_note with ` + "`copy`" + `).

## Example

~~~markdown
---
description: Restart the <green>worker<end>
placeholders:
  i: HOST
---
` + "```" + `bash
ssh HOST sudo systemctl restart worker
` + "```" + `
~~~

Rendered in slim mode with i=prod-1:

~~~
--copy 1 $ ssh prod-1 sudo systemctl restart worker
~~~
`
