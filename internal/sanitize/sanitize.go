// Package sanitize holds the two HTML allowlist policies applied to post
// content before it is persisted.
//
// Caller-supplied HTML goes through the strict post-body policy. HTML
// produced by the markdown converter goes through a looser policy that also
// admits the structural attributes the renderer emits (heading ids,
// highlight classes, footnote anchors); filtering converter output with the
// strict policy would corrupt valid markup the converter itself produced.
// Both policies drop script and style content outright.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var (
	postPolicy     = newPostPolicy()
	markdownPolicy = newMarkdownPolicy()
)

// PostBody sanitizes caller-supplied HTML with the strict policy.
func PostBody(html string) string {
	return postPolicy.Sanitize(html)
}

// ConvertedMarkdown sanitizes converter output with the permissive policy.
func ConvertedMarkdown(html string) string {
	return markdownPolicy.Sanitize(html)
}

func newPostPolicy() *bluemonday.Policy {
	return bluemonday.UGCPolicy()
}

func newMarkdownPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Chroma wraps highlighted code in classed div/span/pre elements.
	p.AllowAttrs("class").OnElements("div", "span", "pre", "code")

	// Heading ids and footnote back-links from the renderer.
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6", "li", "sup", "a")
	p.AllowElements("sup", "sub")

	return p
}
