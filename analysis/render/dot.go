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

// Package render serializes CFGs and analysis results to DOT, GraphML and a
// self-contained HTML viewer, and call graphs to DOT through gonum.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/argus-static/argus/analysis/cfg"
)

// NodeStates maps statement ids to the printed abstract state attached to the node; a
// nil map renders the plain CFG.
type NodeStates map[int]string

const (
	trueColor  = "\"#1cf4a3\"" // green
	falseColor = "\"#dc143c\"" // red
)

func escapeString(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\\", "\\\\"), "\"", "\\\"")
}

// WriteDot writes the CFG as a DOT digraph. When states is non-nil, each node label
// carries the abstract state after the statement.
func WriteDot(w io.Writer, g *cfg.Graph, states NodeStates) error {
	name := g.Descriptor().Name
	if _, err := fmt.Fprintf(w, "digraph %q {\n", name); err != nil {
		return err
	}
	fmt.Fprintf(w, "\tlabel=%q;\n", g.Descriptor().String())
	for _, st := range g.Nodes() {
		label := escapeString(st.String())
		if state, ok := states[st.ID()]; ok {
			label += "\\n" + escapeString(state)
		}
		fmt.Fprintf(w, "\tn%d [shape=box,label=\"%s\"];\n", st.ID(), label)
	}
	for _, st := range g.Nodes() {
		for _, e := range g.Out(st.ID()) {
			switch e.Kind {
			case cfg.EdgeTrue:
				fmt.Fprintf(w, "\tn%d -> n%d [color=%s];\n", e.Src, e.Dst, trueColor)
			case cfg.EdgeFalse:
				fmt.Fprintf(w, "\tn%d -> n%d [color=%s];\n", e.Src, e.Dst, falseColor)
			default:
				fmt.Fprintf(w, "\tn%d -> n%d;\n", e.Src, e.Dst)
			}
		}
	}
	_, err := fmt.Fprintf(w, "}\n")
	return err
}
