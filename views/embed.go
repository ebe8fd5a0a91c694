// Package views embeds the HTML templates of the web interface.
package views

import (
	"embed"
	"net/http"
	"net/url"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html layouts/*.html partials/*.html
var FS embed.FS

// NewEngine returns the template engine serving the embedded views.
// Templates build links from set and filter names with pathescape.
func NewEngine() *html.Engine {
	engine := html.NewFileSystem(http.FS(FS), ".html")
	engine.AddFunc("pathescape", url.PathEscape)
	return engine
}
