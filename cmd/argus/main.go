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

// Command argus runs the abstract-interpretation engine on Go-subset source files and
// reports the warnings of the registered checks.
//
// Exit codes: 0 on success, 1 on setup errors, 2 on fixpoint errors, 3 on validation
// errors.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/argus-static/argus/analysis"
	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/config"
	"github.com/argus-static/argus/analysis/fixpoint"
	"github.com/argus-static/argus/analysis/frontend/golite"
	"github.com/argus-static/argus/internal/formatutil"
)

// flags
var (
	configPath = ""
	domainFlag = ""
	graphsFlag = ""
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to the YAML analysis configuration")
	flag.StringVar(&domainFlag, "domain", "", "value domain override (intervals, sign, constants, reaching-definitions)")
	flag.StringVar(&graphsFlag, "graphs", "", "analysis graph format override (none, dot, graphml, graphml-subnodes, html, html-subnodes)")
}

const usage = `Run the analysis engine on your sources.

Usage:
  argus [options] source.go...

Use the -help flag to display the options.

Examples:
% argus -domain intervals program.go
`

const (
	exitSuccess    = 0
	exitSetup      = 1
	exitFixpoint   = 2
	exitValidation = 3
)

func main() {
	os.Exit(doMain())
}

func exitCodeOf(err error) int {
	var setupErr *config.SetupError
	var validationErr *cfg.ValidationError
	var fixpointErr *fixpoint.FixpointError
	switch {
	case errors.As(err, &setupErr):
		return exitSetup
	case errors.As(err, &validationErr):
		return exitValidation
	case errors.As(err, &fixpointErr), errors.Is(err, fixpoint.ErrCancelled):
		return exitFixpoint
	default:
		return exitSetup
	}
}

func doMain() int {
	flag.Parse()
	if len(flag.Args()) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return exitSetup
	}

	conf, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "argus: %s\n", err)
		return exitCodeOf(err)
	}

	fmt.Fprintf(os.Stderr, formatutil.Faint("Reading sources")+"\n")
	prog, err := loadProgram(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "argus: %s\n", err)
		return exitCodeOf(err)
	}

	fmt.Fprintf(os.Stderr, formatutil.Faint("Analyzing")+"\n")
	report, err := analysis.Run(conf, prog, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "argus: %s\n", err)
		return exitCodeOf(err)
	}

	for _, w := range report.Warnings {
		fmt.Printf("%s %s\n", formatutil.Yellow("[warning]"), w)
	}
	if len(report.Errors) > 0 {
		for _, e := range report.Errors {
			fmt.Fprintf(os.Stderr, "%s %s\n", formatutil.Red("[error]"), e)
		}
		return exitFixpoint
	}
	fmt.Fprintf(os.Stderr, formatutil.Green("Done")+"\n")
	return exitSuccess
}

func loadConfig() (*config.Config, error) {
	conf := config.NewDefault()
	if configPath != "" {
		config.SetGlobalConfig(configPath)
		loaded, err := config.LoadGlobal()
		if err != nil {
			return nil, err
		}
		conf = loaded
	}
	if domainFlag != "" {
		conf.ValueDomain = domainFlag
	}
	if graphsFlag != "" {
		conf.AnalysisGraphs = graphsFlag
		conf.SerializeResults = true
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// loadProgram parses every source file and merges the CFGs into one program. Entry
// points follow the last file that declares main.
func loadProgram(files []string) (*cfg.Program, error) {
	merged := cfg.NewProgram()
	var entries []string
	for _, file := range files {
		prog, err := golite.ParseFile(file, nil)
		if err != nil {
			return nil, err
		}
		for _, g := range prog.Graphs() {
			merged.AddGraph(g)
		}
		entries = prog.EntryPoints()
	}
	if _, ok := merged.Graph("main"); ok {
		merged.SetEntryPoints("main")
	} else if len(files) == 1 {
		merged.SetEntryPoints(entries...)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}
