// Package view turns a user query result into one of four mutually exclusive
// display states and renders it as HTML or plain text.
package view

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/goforj/usersearch/directory"
	"github.com/goforj/usersearch/query"
)

// Kind selects what the surface shows.
type Kind int

const (
	Loading Kind = iota
	Error
	List
	Empty
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Error:
		return "error"
	case List:
		return "list"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Indicator texts.
const (
	LoadingText = "Loading..."
	ErrorText   = "Error fetching users"
	EmptyText   = "No users found"
)

// Row is one rendered user, keyed by the user's identifier.
type Row struct {
	Key   int
	Label string
}

// State is the display state.
type State struct {
	Kind Kind
	Rows []Row
	// Stale marks rows that belong to the previous search while a new one loads.
	Stale bool
}

// FromResult maps a query result to a State. Loading wins over error, and
// error wins over data. Error details are never surfaced.
func FromResult(res query.Result[[]directory.User]) State {
	switch {
	case res.Loading:
		return State{Kind: Loading}
	case res.IsError():
		return State{Kind: Error}
	case !res.HasData:
		return State{Kind: Loading}
	}
	if len(res.Data) == 0 {
		return State{Kind: Empty, Stale: res.Placeholder}
	}
	rows := make([]Row, 0, len(res.Data))
	for _, u := range res.Data {
		rows = append(rows, Row{Key: u.ID, Label: u.Name})
	}
	return State{Kind: List, Rows: rows, Stale: res.Placeholder}
}

// Page is everything the HTML surface needs.
type Page struct {
	Title  string
	Search string
	State  State
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"loadingText": func() string { return LoadingText },
	"errorText":   func() string { return ErrorText },
	"emptyText":   func() string { return EmptyText },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<main>
<form method="get" action="">
<input type="search" name="search" value="{{.Search}}" placeholder="Search users by name" autofocus>
</form>
{{- with .State}}
{{- if eq .Kind.String "loading"}}
<p class="indicator">{{loadingText}}</p>
{{- else if eq .Kind.String "error"}}
<p class="indicator error">{{errorText}}</p>
{{- else if eq .Kind.String "empty"}}
<p class="indicator">{{emptyText}}</p>
{{- else}}
<ul{{if .Stale}} class="stale"{{end}}>
{{- range .Rows}}
<li data-key="{{.Key}}">{{.Label}}</li>
{{- end}}
</ul>
{{- end}}
{{- end}}
</main>
</body>
</html>
`))

// RenderHTML writes the full HTML page.
func RenderHTML(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = "Users"
	}
	return pageTemplate.Execute(w, p)
}

// RenderText writes the state for a terminal, one user per line.
func RenderText(w io.Writer, s State) error {
	var b strings.Builder
	switch s.Kind {
	case Loading:
		b.WriteString(LoadingText + "\n")
	case Error:
		b.WriteString(ErrorText + "\n")
	case Empty:
		b.WriteString(EmptyText + "\n")
	case List:
		for _, r := range s.Rows {
			fmt.Fprintf(&b, "%5d  %s\n", r.Key, r.Label)
		}
		if s.Stale {
			b.WriteString("(updating...)\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
