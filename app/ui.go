package app

import (
	"html"
	"strings"
)

// UI layout helpers for consistent rendering.
// Use these wrappers + croplens.css classes.

// Grid wraps content in a card-grid container
func Grid(content string) string {
	return `<div class="card-grid">` + content + `</div>`
}

// Row wraps content in a card-row container
func Row(content string) string {
	return `<div class="card-row">` + content + `</div>`
}

// Empty renders an empty state message
func Empty(message string) string {
	return `<p class="empty">` + html.EscapeString(message) + `</p>`
}

// CardDiv wraps content in a card container
func CardDiv(content string) string {
	return `<div class="card">` + content + `</div>`
}

// CardDivClass wraps content in a card with additional classes
func CardDivClass(class, content string) string {
	return `<div class="card ` + class + `">` + content + `</div>`
}

// Title renders a card title
func Title(text string) string {
	return `<span class="card-title">` + html.EscapeString(text) + `</span>`
}

// Meta renders metadata text
func Meta(content string) string {
	return `<div class="card-meta">` + content + `</div>`
}

// Desc renders description text
func Desc(text string) string {
	return `<p class="card-desc">` + html.EscapeString(text) + `</p>`
}

// Banner renders a notice. kind is "info" or "error"; content is trusted html.
func Banner(kind, content string) string {
	return `<div class="banner banner-` + kind + `" role="` + bannerRole(kind) + `">` + content + `</div>`
}

func bannerRole(kind string) string {
	if kind == "error" {
		return "alert"
	}
	return "status"
}

// Stat renders a labelled statistic.
func Stat(label, value string) string {
	var b strings.Builder
	b.WriteString(`<div class="stat"><div class="stat-value">`)
	b.WriteString(html.EscapeString(value))
	b.WriteString(`</div><div class="stat-label">`)
	b.WriteString(html.EscapeString(label))
	b.WriteString(`</div></div>`)
	return b.String()
}

// Chip renders a small labelled element with a leading icon.
func Chip(icon, label, text string) string {
	var b strings.Builder
	b.WriteString(`<span class="chip"><span class="chip-icon">`)
	b.WriteString(html.EscapeString(icon))
	b.WriteString(`</span><span class="chip-text"><b>`)
	b.WriteString(html.EscapeString(label))
	b.WriteString(`</b>`)
	if text != "" {
		b.WriteString(`: `)
		b.WriteString(html.EscapeString(text))
	}
	b.WriteString(`</span></span>`)
	return b.String()
}
