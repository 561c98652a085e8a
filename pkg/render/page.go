package render

import (
	"io"

	"github.com/green-ecolution/demo-plugin/pkg/vdom"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Title is the page title.
	Title string

	// Lang is the language attribute for the html element.
	// Defaults to "en".
	Lang string

	// Body is the root VNode for the page content.
	Body *vdom.VNode

	// Preload lists module URLs announced with <link rel="modulepreload">.
	Preload []string

	// Scripts are script URLs loaded as ES modules at the end of body.
	Scripts []string

	// InlineScript is emitted after Scripts when non-empty.
	InlineScript string
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	body := []any{page.Body}
	for _, src := range page.Scripts {
		body = append(body, vdom.Script(vdom.Type("module"), vdom.Src(src)))
	}
	if page.InlineScript != "" {
		body = append(body, vdom.Script(vdom.Type("module"), vdom.Raw(page.InlineScript)))
	}

	head := []any{
		vdom.Meta(vdom.Charset("utf-8")),
		vdom.Meta(vdom.Name("viewport"), vdom.Content("width=device-width, initial-scale=1")),
		vdom.Title(page.Title),
	}
	for _, href := range page.Preload {
		head = append(head, vdom.Link(vdom.Rel("modulepreload"), vdom.Href(href)))
	}

	doc := vdom.Html(vdom.Lang(lang),
		vdom.Head(head...),
		vdom.Body(body...),
	)

	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	return r.RenderToWriter(w, doc)
}
