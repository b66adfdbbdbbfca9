package mcpserver

// StampFormatContract describes the frontmatter stamp layout that Daymark
// maintains in every note and that LLM consumers should preserve.
const StampFormatContract = `# Daymark Stamp Format Contract

Daymark maintains creation/modification metadata in the YAML frontmatter of
every Markdown note. Tools that create or rewrite notes MUST preserve this
layout.

## Structure

` + "```" + `markdown
---
created: 2025-10-19 16:55:00        # first time the note was seen; never changes
modified: 2025-10-20 09:12:41       # refreshed on every meaningful edit
type: note                          # kind marker, stamped once if absent
tags:
  - date/2025/10/19                 # day the note was created (kept at the front)
  - date/2025/10/20                 # each later day the note was visited
  - any-other-tag
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **Timestamps** use the fixed layout ` + "`" + `YYYY-MM-DD HH:MM:SS` + "`" + ` in local time,
   written as plain (unquoted) YAML scalars.
2. **` + "`" + `created` + "`" + ` is write-once.** Daymark stamps it when a note first appears
   and never rewrites it afterwards.
3. **Day tags** are hierarchical: ` + "`" + `<base>/YYYY/MM/DD` + "`" + ` with zero-padded parts
   (default base ` + "`" + `date` + "`" + `). The tag for the creation day stays first in the
   tags list; visit-day tags append after it.
4. **Unknown fields are preserved.** Daymark only touches the fields above;
   every other frontmatter key, its value, and the key order survive a stamp
   untouched. Do the same.
5. **Notes without frontmatter are valid.** Daymark adds the block on first
   stamp. Do not add empty frontmatter yourself.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
7. **Encoding** is UTF-8.

## Example

A plain note:

` + "```" + `markdown
Ideas for the weekend.
` + "```" + `

after the first stamp on 2025-10-19 becomes:

` + "```" + `markdown
---
created: 2025-10-19 16:55:00
modified: 2025-10-19 16:55:00
type: note
tags:
  - date/2025/10/19
---
Ideas for the weekend.
` + "```" + `
`
