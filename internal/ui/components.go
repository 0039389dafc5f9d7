// Package ui holds stateless markup helpers shared by the view controllers,
// plus the modal prompt primitives.
package ui

import (
	"fmt"
	"html"
	"strings"
)

// Card renders a titled content card.
func Card(title, body string) string {
	var b strings.Builder
	b.WriteString(`<div class="card">`)
	if title != "" {
		fmt.Fprintf(&b, `<h3 class="card-title">%s</h3>`, html.EscapeString(title))
	}
	fmt.Fprintf(&b, `<div class="card-body">%s</div>`, body)
	b.WriteString(`</div>`)
	return b.String()
}

// ListItem renders a clickable list row carrying a navigation target.
func ListItem(href, primary, secondary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<li class="list-item" data-href="%s">`, html.EscapeString(href))
	fmt.Fprintf(&b, `<span class="list-item-primary">%s</span>`, html.EscapeString(primary))
	if secondary != "" {
		fmt.Fprintf(&b, `<span class="list-item-secondary">%s</span>`, html.EscapeString(secondary))
	}
	b.WriteString(`</li>`)
	return b.String()
}

// Badge renders a status pill. The class suffix is derived from the label so
// stylesheets can color per status.
func Badge(label string) string {
	class := strings.ToLower(strings.ReplaceAll(label, " ", "-"))
	return fmt.Sprintf(`<span class="badge badge-%s">%s</span>`,
		html.EscapeString(class), html.EscapeString(label))
}

// NavLink renders a navigation anchor, marking the active route.
func NavLink(href, label string, active bool) string {
	class := "nav-link"
	if active {
		class += " active"
	}
	return fmt.Sprintf(`<a class="%s" href="%s">%s</a>`,
		class, html.EscapeString(href), html.EscapeString(label))
}

// Field renders a labeled read-only detail row.
func Field(label, value string) string {
	if value == "" {
		value = "—"
	}
	return fmt.Sprintf(`<div class="field"><span class="field-label">%s</span><span class="field-value">%s</span></div>`,
		html.EscapeString(label), html.EscapeString(value))
}

// EmptyState renders the placeholder shown when a collection has no entries.
func EmptyState(message string) string {
	return fmt.Sprintf(`<p class="empty-state">%s</p>`, html.EscapeString(message))
}

// Modal wraps content in the shared modal chrome with confirm/cancel actions.
func Modal(id, title, body, confirmLabel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="modal" id="%s" role="dialog">`, html.EscapeString(id))
	fmt.Fprintf(&b, `<h2 class="modal-title">%s</h2>`, html.EscapeString(title))
	fmt.Fprintf(&b, `<div class="modal-body">%s</div>`, body)
	b.WriteString(`<div class="modal-actions">`)
	b.WriteString(`<button class="btn btn-secondary" data-action="cancel">Cancelar</button>`)
	fmt.Fprintf(&b, `<button class="btn btn-primary" data-action="confirm">%s</button>`, html.EscapeString(confirmLabel))
	b.WriteString(`</div></div>`)
	return b.String()
}
