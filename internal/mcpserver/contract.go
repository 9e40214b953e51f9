package mcpserver

// PageFormatContract describes the conventions LLM consumers should follow
// when creating and organizing wiki pages.
const PageFormatContract = `# Ansuz Page Conventions

The wiki is your working memory while exploring a corpus. Keep it tidy.

## Titles

1. Titles are unique, case-sensitive keys. Pick them once and reuse them.
2. Use slash-separated namespaces to group related findings:
   ` + "`revenue/q1`" + `, ` + "`people/alice`" + `, ` + "`questions/open`" + `.
3. Keep titles short and stable; other pages link to them by exact title.

## Content

1. Free-form text. Record evidence, not speculation; quote sources where
   possible so search can find them again.
2. Prefer appending (` + "`update_page`" + ` with ` + "`append`" + `) over rewriting when
   accumulating findings, so earlier evidence survives.
3. Never provide ` + "`content`" + ` and ` + "`append`" + ` in the same call.

## Tags

1. Tags are short lowercase labels used for filtering: ` + "`finding`" + `,
   ` + "`todo`" + `, ` + "`done`" + `, ` + "`question`" + `.
2. A tags argument on create or update replaces the whole tag set.

## Links

1. Use ` + "`link_pages`" + ` to cross-reference related pages; both must exist.
2. Deleting a page removes every reference to it automatically. Links to
   missing pages are impossible by construction: create the target first.

## Iterations

Call ` + "`set_iteration`" + ` once at the start of each reasoning step. Page
timestamps (` + "`created_at`" + `, ` + "`updated_at`" + `) record the step, not wall time.
`
