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

package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/config"
	"github.com/argus-static/argus/analysis/interproc"
	"github.com/argus-static/argus/analysis/render"
)

func reportsDir(conf *config.Config) (string, error) {
	dir := conf.ReportsDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", config.Setupf("cannot create reports directory %s: %v", dir, err)
	}
	return dir, nil
}

func graphExt(kind string) string {
	switch kind {
	case config.GraphsDot:
		return ".dot"
	case config.GraphsGraphML, config.GraphsGraphMLSubnodes:
		return ".graphml"
	default:
		return ".html"
	}
}

func writeGraph(conf *config.Config, path string, g *cfg.Graph, states render.NodeStates) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch conf.AnalysisGraphs {
	case config.GraphsDot:
		return render.WriteDot(f, g, states)
	case config.GraphsGraphML:
		return render.WriteGraphML(f, g, states, false)
	case config.GraphsGraphMLSubnodes:
		return render.WriteGraphML(f, g, states, true)
	case config.GraphsHTML:
		return render.WriteHTML(f, g, states, false)
	case config.GraphsHTMLSubnodes:
		return render.WriteHTML(f, g, states, true)
	}
	return nil
}

// safeName turns a CFG name and token key into a file-system friendly base name.
func safeName(parts ...string) string {
	joined := strings.Join(parts, "_")
	repl := strings.NewReplacer("/", "-", ":", "-", ";", "-", "|", "-", " ", "")
	return repl.Replace(joined)
}

// dumpInputs writes the plain input CFGs before the analysis runs.
func dumpInputs(conf *config.Config, prog *cfg.Program, log *config.LogGroup) error {
	if conf.AnalysisGraphs == config.GraphsNone {
		return nil
	}
	dir, err := reportsDir(conf)
	if err != nil {
		return err
	}
	if strings.HasPrefix(conf.AnalysisGraphs, "html") {
		if err := render.EmitAssets(dir); err != nil {
			return err
		}
	}
	for _, g := range prog.Graphs() {
		path := filepath.Join(dir, safeName("input", g.Descriptor().Name)+graphExt(conf.AnalysisGraphs))
		if err := writeGraph(conf, path, g, nil); err != nil {
			return err
		}
		log.Debugf("dumped input CFG %s to %s", g.Descriptor().Name, path)
	}
	return nil
}

// dumpResults writes the analyzed CFGs with their per-statement states, one file per
// (cfg, token) pair. Under Optimize, states of non-block-head statements are only
// materialized when DumpForcesUnwinding is set.
func dumpResults[A abstract.AbstractState[A]](conf *config.Config, prog *cfg.Program,
	analyzer *interproc.Analyzer[A], log *config.LogGroup) error {
	if !conf.SerializeResults || conf.AnalysisGraphs == config.GraphsNone {
		return nil
	}
	dir, err := reportsDir(conf)
	if err != nil {
		return err
	}
	// The input dump, when enabled, has already emitted the assets.
	if strings.HasPrefix(conf.AnalysisGraphs, "html") && !conf.SerializeInputs {
		if err := render.EmitAssets(dir); err != nil {
			return err
		}
	}
	for _, name := range prog.Names() {
		for i, analyzed := range analyzer.ResultsOf(name) {
			states := render.NodeStates{}
			for _, st := range analyzed.Graph.Nodes() {
				if conf.Optimize && !conf.DumpForcesUnwinding && !analyzed.Graph.BlockHead(st) {
					continue
				}
				post, err := analyzed.Result.PostStateOf(st)
				if err != nil {
					return err
				}
				states[st.ID()] = post.String()
			}
			base := safeName("result", name, fmt.Sprintf("ctx%d", i))
			path := filepath.Join(dir, base+graphExt(conf.AnalysisGraphs))
			if err := writeGraph(conf, path, analyzed.Graph, states); err != nil {
				return err
			}
			log.Debugf("dumped analyzed CFG %s (context %s) to %s", name, analyzed.Token, path)
		}
	}
	return nil
}
