package ui

import (
	"embed"
	"html/template"
	"io/fs"

	"gitea.jw6.us/james/tiptrack/internal/shifts"
)

//go:embed templates/*
var templateFS embed.FS

var templates = mustParseTemplates()

var funcMap = template.FuncMap{
	"currency": shifts.FormatCurrency,
	"date": func(d shifts.Date) string {
		if d.IsZero() {
			return ""
		}
		return d.String()
	},
	"weekdays": func() []string {
		return []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	},
}

// mustParseTemplates clones base.html once per page so every page can
// define its own "content" block.
func mustParseTemplates() map[string]*template.Template {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}

	base := template.Must(template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html"))

	sets := make(map[string]*template.Template)
	for _, file := range files {
		if file == "templates/base.html" {
			continue
		}

		set := template.Must(base.Clone())
		template.Must(set.ParseFS(templateFS, file))
		sets[file[len("templates/"):]] = set
	}

	return sets
}
