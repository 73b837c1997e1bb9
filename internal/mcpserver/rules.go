package mcpserver

// LinkRules describes how folio resolves the links of the table of contents
// and of documents. It is served as a resource so that LLM clients can make
// sense of validation results.
const LinkRules = `# folio Link Rules

The table of contents is the root index file (` + "`index.md`" + ` by default).
Every link in it that points at a local document is one TOC entry.

## Entries

1. Entries keep the order in which they appear in the index file.
2. The nearest preceding heading (level 2 or deeper) names the entry's section.
3. The link text is the entry label; an empty label falls back to the file name.

## Resolution

1. Links with a scheme (` + "`https:`, `mailto:`" + `), protocol-relative links
   (` + "`//host`" + `) and pure fragments (` + "`#id`" + `) are not entries.
2. Paths are percent-decoded; fragment and query are dropped.
3. A leading ` + "`/`" + ` is relative to the site root; anything else is relative to
   the directory of the linking file.
4. ` + "`.html`" + ` maps to ` + "`.md`" + `; a target without extension gets ` + "`.md`" + `;
   a target ending in ` + "`/`" + ` means its ` + "`index.md`" + `.
5. Targets with any other extension (images, assets) are ignored.

## Validation

An entry is broken when its resolved path does not name a markdown file
under the site root, including paths that escape the root. Validation
reports exactly the broken entries, in TOC order.
`
