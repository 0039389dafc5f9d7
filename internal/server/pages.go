package server

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"mindcare/internal/ui"
	"mindcare/internal/views"
)

// capturePage is the views presenter: it records the page rendered during
// the current resolve. Callers hold mu.
func (s *Server) capturePage(page views.Page) {
	s.lastPage = page
}

// handlePage resolves SPA paths through the router and wraps the rendered
// view in the page shell. Unmatched paths fall back to the dashboard, so a
// bookmarked URL always lands somewhere usable.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.mu.Lock()
	s.lastPage = views.Page{}
	s.router.Resolve(r.URL.Path)
	page := s.lastPage
	s.mu.Unlock()

	if page.Markup == "" && page.Title == "" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, renderShell(page))
}

// renderShell wraps a rendered view in the application chrome.
func renderShell(page views.Page) string {
	var nav strings.Builder
	for _, link := range []struct {
		href  string
		label string
	}{
		{"/dashboard", "Dashboard"},
		{"/pacientes", "Pacientes"},
		{"/agenda", "Agenda"},
		{"/sesiones", "Sesiones"},
		{"/perfil-psicologo", "Perfil"},
	} {
		nav.WriteString(ui.NavLink(link.href, link.label, link.href == page.Path))
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html lang=\"es\"><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s — MindCare</title>", html.EscapeString(page.Title))
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"></head><body>")
	fmt.Fprintf(&b, "<nav class=\"nav\">%s</nav>", nav.String())
	fmt.Fprintf(&b, "<main id=\"app\">%s</main>", page.Markup)
	b.WriteString("</body></html>")
	return b.String()
}
