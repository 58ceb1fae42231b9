package mcpserver

// PostFormatURI is the resource URI of PostFormatContract.
const PostFormatURI = "postconf://post-format"

// PostFormatContract describes the post files written by save_post, so
// that LLM clients know what a saved post looks like before they fill in
// the session.
const PostFormatContract = `# Post Format Contract

Every post saved by postconf is a new Markdown file in the output directory.

## File name

` + "`" + `{date}-{title}.md` + "`" + `, where every space in the title becomes a hyphen and
nothing else is changed. Saving never overwrites: if the file already exists
the save fails and the session is left as it was.

## Content

` + "```" + `markdown
---
title: Hello World
date: "2024-01-05"
categories:
  - tech
tags:
  - rust
  - gui
---
` + "```" + `

## Rules

1. **Key order is fixed:** title, date, categories, tags. All four are always present.
2. **title** is required at save time and must not contain ` + "`" + `/` + "`" + `, ` + "`" + `\` + "`" + ` or NUL.
3. **date** is ` + "`" + `YYYY-MM-DD` + "`" + ` with a four-digit year and zero-padded month and
   day. Anything else is rejected when set. It defaults to today.
4. **categories** and **tags** keep insertion order and never hold the same value
   twice (exact, case-sensitive match). Empty lists are written as ` + "`" + `[]` + "`" + `.
5. Items are removed by zero-based position: use get_session to read positions first.
6. The body after the closing ` + "`" + `---` + "`" + ` is left empty for the author.

## Workflow

1. get_session to see the current values.
2. set_title, set_date, add_category / add_tag, delete_category / delete_tag.
3. save_post. The session stays open, so a second save with the same title and
   date fails until one of them changes.
`
