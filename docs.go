package resource

import (
	"html/template"
	"net/http"
)

// DocsOption configures the docs UI.
type DocsOption func(*docsPage)

// docsPage is the data rendered into the docs template.
type docsPage struct {
	Title   string
	SpecURL string
}

// WithDocsTitle sets the page title for the docs UI.
func WithDocsTitle(title string) DocsOption {
	return func(p *docsPage) {
		p.Title = title
	}
}

// WithDocsSpecURL points the docs UI at the OpenAPI document. Defaults to
// "/openapi.json".
func WithDocsSpecURL(url string) DocsOption {
	return func(p *docsPage) {
		p.SpecURL = url
	}
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/@stoplight/elements/styles.min.css">
  <script src="https://unpkg.com/@stoplight/elements/web-components.min.js"></script>
</head>
<body>
  <elements-api apiDescriptionUrl="{{.SpecURL}}" router="hash" layout="sidebar" />
</body>
</html>`))

// ServeDocs serves an interactive documentation UI for the service's
// OpenAPI document at path.
func (s *Service) ServeDocs(path string, opts ...DocsOption) {
	page := &docsPage{
		Title:   s.title,
		SpecURL: "/openapi.json",
	}
	for _, opt := range opts {
		opt(page)
	}

	s.mux.Get(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := docsTemplate.Execute(w, page); err != nil {
			s.logger.Error("render docs", "err", err)
		}
	})
}
