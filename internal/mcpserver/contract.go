package mcpserver

// EntryFormatContract describes the canonical Markdown entry format that
// LLM consumers should follow when creating entries.
const EntryFormatContract = `# Dagaz Entry Format Contract

Every journal entry body MUST use this restricted Markdown dialect. Content
is parsed into a structured tree on load and re-serialized on save, so
anything outside the canonical forms below is degraded to plain text.

## Blocks

Blocks are separated by one blank line.

` + "````" + `markdown
# Heading (1 to 5 hashes, then one space)

Plain paragraph text.

> Quoted line

- Unordered list item
- Another item

1. Ordered list item
2. Items are renumbered from 1 on save

` + "```" + `go
code block, optional language after the opening fence
` + "```" + `
` + "````" + `

## Inline formatting

- Bold: ` + "`**text**`" + `
- Italic: ` + "`_text_`" + ` (underscores, not asterisks)
- Strikethrough: ` + "`~~text~~`" + `
- Underline: ` + "`<u>text</u>`" + `
- Inline code: ` + "`" + "`text`" + "`" + `
- Link: ` + "`[label](https://example.com)`" + `
- Image: ` + "`![description](/api/entries/<entryID>/attachments/<attachmentID>)`" + `

## Rules

1. **Headings** have at most 5 levels. Six or more hashes is plain text.
2. **Ordered lists** always renumber from 1 when saved; the numbers you
   write are not preserved.
3. **Image descriptions** must not contain square brackets, parentheses or
   newlines; offending characters are stripped on save.
4. **Images** must reference durable attachment URLs of the exact form
   ` + "`/api/entries/<entryID>/attachments/<attachmentID>`" + `. Any image
   reference that stops appearing in an entry's saved content is
   garbage-collected along with its stored file.
5. **Upload first, then embed.** Use the ` + "`upload_image`" + ` tool; it
   returns a ` + "`markdownImage`" + ` field ready to paste into the entry.
6. **Encoding** is UTF-8. Windows line endings are normalized to \n.

## Example

` + "```" + `markdown
# Hiking day

Started early, **great** weather. _Almost_ missed the bus.

![trailhead](/api/entries/3f2a.../attachments/9c1b...)

## Notes

- Bring more water next time
- Check the forecast

> The mountains are calling.
` + "```" + `
`
