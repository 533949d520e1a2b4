// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package render

import (
	"embed"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/argus-static/argus/analysis/cfg"
)

//go:embed assets/viewer.css
var assets embed.FS

// EmitAssets writes the viewer's supporting assets into dir. It runs once per run; the
// HTML pages reference the emitted files by name.
func EmitAssets(dir string) error {
	css, err := assets.ReadFile("assets/viewer.css")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "viewer.css"), css, 0o644)
}

var viewerTmpl = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<link rel="stylesheet" href="viewer.css">
</head>
<body>
<h1>{{.Title}}</h1>
<table class="cfg">
<tr><th>#</th><th>statement</th><th>successors</th>{{if .HasStates}}<th>state after</th>{{end}}</tr>
{{range .Rows}}<tr>
<td>{{.ID}}</td>
<td>{{.Label}}{{if .Subnodes}}<br><small>{{range .Subnodes}}{{.}}<br>{{end}}</small>{{end}}</td>
<td>{{range .Succs}}{{if eq .Kind "true"}}<span class="edge-true">{{.Dst}}</span> {{else if eq .Kind "false"}}<span class="edge-false">{{.Dst}}</span> {{else}}{{.Dst}} {{end}}{{end}}</td>
{{if $.HasStates}}<td class="state">{{.State}}</td>{{end}}
</tr>
{{end}}</table>
</body>
</html>
`))

type htmlSucc struct {
	Dst  int
	Kind string
}

type htmlRow struct {
	ID       int
	Label    string
	State    string
	Succs    []htmlSucc
	Subnodes []string
}

type htmlPage struct {
	Name      string
	Title     string
	HasStates bool
	Rows      []htmlRow
}

// WriteHTML writes a self-contained viewer page for the CFG. When subnodes is set, each
// row also lists the subterms of the statement's expression.
func WriteHTML(w io.Writer, g *cfg.Graph, states NodeStates, subnodes bool) error {
	page := htmlPage{
		Name:      g.Descriptor().Name,
		Title:     g.Descriptor().String(),
		HasStates: states != nil,
	}
	for _, st := range g.Nodes() {
		row := htmlRow{ID: st.ID(), Label: st.String(), State: states[st.ID()]}
		for _, e := range g.Out(st.ID()) {
			row.Succs = append(row.Succs, htmlSucc{Dst: e.Dst, Kind: e.Kind.String()})
		}
		if subnodes && st.Expr != nil {
			row.Subnodes = exprSubterms(st)
		}
		page.Rows = append(page.Rows, row)
	}
	return viewerTmpl.Execute(w, page)
}

// exprSubterms lists the subterm strings of the statement's expression tree by reusing
// the GraphML flattening.
func exprSubterms(st *cfg.Statement) []string {
	sub := &xmlGraph{}
	addExprSubnodes(sub, "e", st.Expr, 0)
	out := make([]string, 0, len(sub.Nodes))
	for _, n := range sub.Nodes {
		out = append(out, n.Data[0].Value)
	}
	return out
}
