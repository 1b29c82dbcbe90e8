// Package templates holds the console's HTML templates and stylesheet.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"churchadmin/internal/models"
)

//go:embed *.tmpl
var pages embed.FS

//go:embed static
var static embed.FS

// Load parses every console template
func Load() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006 15:04")
		},
		"optionLabel": models.OptionLabel,
		"add": func(a, b int) int {
			return a + b
		},
		"yesNo": func(b bool) string {
			if b {
				return "Yes"
			}
			return "No"
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(pages, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Static returns the embedded stylesheet directory
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
