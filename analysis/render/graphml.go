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
	"encoding/xml"
	"fmt"
	"io"

	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/symbolic"
)

// GraphML schema: nodes carry a label key and an optional state key; edges carry their
// kind. Subnodes, when requested, represent expression subtrees nested under their
// statement node.

type xmlGraphML struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr"`
	Keys    []xmlKey     `xml:"key"`
	Graph   xmlGraph     `xml:"graph"`
}

type xmlKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type xmlGraph struct {
	ID          string    `xml:"id,attr"`
	EdgeDefault string    `xml:"edgedefault,attr"`
	Nodes       []xmlNode `xml:"node"`
	Edges       []xmlEdge `xml:"edge"`
}

type xmlNode struct {
	ID       string    `xml:"id,attr"`
	Data     []xmlData `xml:"data"`
	Subgraph *xmlGraph `xml:"graph,omitempty"`
}

type xmlEdge struct {
	Src  string    `xml:"source,attr"`
	Dst  string    `xml:"target,attr"`
	Data []xmlData `xml:"data"`
}

type xmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// WriteGraphML writes the CFG (optionally with per-node states and expression subnodes)
// as a GraphML document.
func WriteGraphML(w io.Writer, g *cfg.Graph, states NodeStates, subnodes bool) error {
	doc := xmlGraphML{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Keys: []xmlKey{
			{ID: "label", For: "node", Name: "label", Type: "string"},
			{ID: "state", For: "node", Name: "state", Type: "string"},
			{ID: "kind", For: "edge", Name: "kind", Type: "string"},
		},
		Graph: xmlGraph{ID: g.Descriptor().Name, EdgeDefault: "directed"},
	}
	for _, st := range g.Nodes() {
		node := xmlNode{
			ID:   fmt.Sprintf("n%d", st.ID()),
			Data: []xmlData{{Key: "label", Value: st.String()}},
		}
		if state, ok := states[st.ID()]; ok {
			node.Data = append(node.Data, xmlData{Key: "state", Value: state})
		}
		if subnodes && st.Expr != nil {
			sub := &xmlGraph{ID: node.ID + "::expr", EdgeDefault: "directed"}
			addExprSubnodes(sub, node.ID, st.Expr, 0)
			node.Subgraph = sub
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, node)
	}
	for _, st := range g.Nodes() {
		for _, e := range g.Out(st.ID()) {
			doc.Graph.Edges = append(doc.Graph.Edges, xmlEdge{
				Src:  fmt.Sprintf("n%d", e.Src),
				Dst:  fmt.Sprintf("n%d", e.Dst),
				Data: []xmlData{{Key: "kind", Value: e.Kind.String()}},
			})
		}
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(doc)
}

// addExprSubnodes flattens an expression tree into subgraph nodes, one per subterm.
func addExprSubnodes(sub *xmlGraph, prefix string, e symbolic.Expression, next int) int {
	id := fmt.Sprintf("%s.%d", prefix, next)
	sub.Nodes = append(sub.Nodes, xmlNode{
		ID:   id,
		Data: []xmlData{{Key: "label", Value: e.String()}},
	})
	next++
	var children []symbolic.Expression
	switch x := e.(type) {
	case *symbolic.UnaryExpr:
		children = []symbolic.Expression{x.Arg}
	case *symbolic.BinaryExpr:
		children = []symbolic.Expression{x.Left, x.Right}
	case *symbolic.TernaryExpr:
		children = []symbolic.Expression{x.A, x.B, x.C}
	case *symbolic.HeapReference:
		children = []symbolic.Expression{x.Inner}
	case *symbolic.HeapDereference:
		children = []symbolic.Expression{x.Inner}
	case *symbolic.AccessChild:
		children = []symbolic.Expression{x.Receiver, x.Child}
	}
	for _, c := range children {
		childID := fmt.Sprintf("%s.%d", prefix, next)
		next = addExprSubnodes(sub, prefix, c, next)
		sub.Edges = append(sub.Edges, xmlEdge{Src: id, Dst: childID})
	}
	return next
}
