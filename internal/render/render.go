// Package render converts markdown to HTML, with syntax-highlighted code
// blocks and a hash-keyed result cache.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chroma_html "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"

	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"

	"github.com/berryhill/draftfly-wp/internal/cache"
	"github.com/berryhill/draftfly-wp/internal/util"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

const (
	ModeClassic = "classic"
	ModeMmark   = "mmark"
)

// Renderer converts markdown to HTML. Mode selects the parser flavor;
// syntaxTheme is the chroma style applied to fenced code blocks.
type Renderer struct {
	mode        string
	syntaxTheme string
}

func New(mode, syntaxTheme string) *Renderer {
	if mode != ModeMmark {
		mode = ModeClassic
	}
	return &Renderer{mode: mode, syntaxTheme: syntaxTheme}
}

func (r *Renderer) Mode() string {
	return r.mode
}

// Render converts md to HTML. The output is renderer output, not sanitized;
// callers apply their own allowlist before persisting it.
func (r *Renderer) Render(md []byte) []byte {
	switch r.mode {
	case ModeMmark:
		return r.renderMmark(md)
	default:
		return r.renderClassic(md)
	}
}

// RenderCached is Render behind the content-hash keyed cache.
func (r *Renderer) RenderCached(md []byte) []byte {
	hash := util.ContentHash(md)
	if cached, found := cache.GetRenderedMarkdown(hash, r.mode); found {
		renderLogger.Debug().Str("content_hash", hash).Msg("Render cache hit")
		return cached
	}

	html := r.Render(md)
	cache.SetRenderedMarkdown(hash, r.mode, html)
	return html
}

// HighlightCode renders a fenced code block through chroma.
func (r *Renderer) HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	style := styles.Get(r.syntaxTheme)
	if style == nil {
		style = styles.Fallback
	}

	formatter := chroma_html.New(
		chroma_html.WithClasses(true),
		chroma_html.PreventSurroundingPre(false),
	)

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

func (r *Renderer) codeBlockHook() md_html.RenderNodeFunc {
	return func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
		if code, ok := node.(*ast.CodeBlock); ok && entering {
			var lang string
			if info := code.Info; info != nil {
				lang = string(info)
			}
			highlighted := r.HighlightCode(string(code.Literal), lang)
			fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", highlighted)
			return ast.GoToNext, true
		}
		return ast.GoToNext, false
	}
}

func (r *Renderer) renderClassic(md []byte) []byte {
	opts := md_html.RendererOptions{
		Flags:          md_html.CommonFlags | md_html.FootnoteReturnLinks,
		Comments:       [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: r.codeBlockHook(),
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.Attributes |
			parser.NonBlockingSpace,
	).Parse(md)

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

func (r *Renderer) renderMmark(md []byte) []byte {
	md = markdown.NormalizeNewlines(md)

	mparser.Extensions |= parser.NoIntraEmphasis

	p := parser.NewWithExtensions(mparser.Extensions)
	p.Opts = parser.Options{
		ParserHook: mparser.Hook,
		// No ReadIncludeFn: inbound markdown must not pull local files.
		Flags: parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)

	mhtmlOpts := mhtml.RendererOptions{
		Language: lang.New("en"),
	}

	hook := r.codeBlockHook()
	opts := md_html.RendererOptions{
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, handled := hook(w, node, entering); handled {
				return status, handled
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts))
}
