// Package templates holds the HTML pages, embedded into the binary.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed *.html
var files embed.FS

// FuncMap is available to every page.
var FuncMap = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"isSet": func(id *int, want int) bool {
		return id != nil && *id == want
	},
	"timeAgo": func(t time.Time) string {
		duration := time.Since(t)

		switch {
		case duration.Minutes() < 1:
			return "Just now"
		case duration.Hours() < 1:
			minutes := int(duration.Minutes())
			if minutes == 1 {
				return "1 minute ago"
			}
			return fmt.Sprintf("%d minutes ago", minutes)
		case duration.Hours() < 24:
			hours := int(duration.Hours())
			if hours == 1 {
				return "1 hour ago"
			}
			return fmt.Sprintf("%d hours ago", hours)
		case duration.Hours() < 48:
			return "Yesterday"
		case duration.Hours() < 168:
			return fmt.Sprintf("%d days ago", int(duration.Hours()/24))
		default:
			return t.Format("Jan 2")
		}
	},
}

// Load parses every page. Pages are addressed by file name, e.g. "home.html".
func Load() (*template.Template, error) {
	return template.New("").Funcs(FuncMap).ParseFS(files, "*.html")
}
