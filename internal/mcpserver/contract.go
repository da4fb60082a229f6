package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# geokb Note Format Contract

Every Markdown note stored in the vault MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED - used in search and the link mapping
type: Evergreen                     # OPTIONAL - Evergreen, Literature, or Project
status: IN PROGRESS                 # OPTIONAL - TODO, IN PROGRESS, or DONE
category: Geography / Countries     # OPTIONAL - slash-separated hierarchy
topic: Geography                    # OPTIONAL - used for topic filtering
---

Body text in standard Markdown.

Use [display text](other-note.md) to reference other notes. The target is
the note FILENAME including the .md extension; directory prefixes are
ignored when the link is resolved.
` + "```" + `

## Rules

1. **YAML frontmatter is recommended.** The ` + "`" + `---` + "`" + ` fences must be the first
   thing in the file (no leading blank lines). Notes without frontmatter are
   still tracked, but have no title in the link mapping.
2. **` + "`" + `title` + "`" + ` field drives resolution.** It is the display name in the link
   mapping; duplicate titles shadow each other.
3. **Links** use standard Markdown: ` + "`" + `[Norway](20250314_norway.md)` + "`" + `. Targets
   resolve by base filename anywhere in the vault, so ` + "`" + `[x](./a.md)` + "`" + ` and
   ` + "`" + `[x](regions/a.md)` + "`" + ` point at the same note.
4. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
5. **Filenames** are timestamped: ` + "`" + `YYYYMMDD_slug.md` + "`" + ` (e.g.
   ` + "`" + `20250314_norway.md` + "`" + `). Slugs are lowercase with hyphens.
6. **Encoding** is UTF-8 with a trailing newline.
7. **Language policy:** file names and frontmatter keys MUST be in English
   (Latin characters). Frontmatter values and body content may use any
   language including Cyrillic.

## Example

` + "```" + `markdown
---
title: Norway
type: Evergreen
status: IN PROGRESS
category: Geography / Countries / Europe
topic: Geography
---

# Norway

## GeoGuessr clues

Right-hand traffic, [Sweden](20250314_sweden.md) border crossings are
signposted in both languages.

## Related notes

- [Scandinavia](20250301_scandinavia.md)
` + "```" + `
`
