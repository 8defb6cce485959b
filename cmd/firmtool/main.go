// Command firmtool drives the IR kernel end to end over a fixed set of
// sample graphs: construction, verification, local optimization, jump
// threading, and (optionally) statistics recording.
//
// Grounded on the teacher's cmd/sentra/main.go: a flat os.Args[1:]
// dispatcher with a small alias map resolved before the subcommand
// switch, usage/version printed to stdout.
package main

import (
	"fmt"
	"os"
	"strings"

	"ssagraph/cmd/firmtool/internal/demo"
	"ssagraph/internal/analysis"
	"ssagraph/internal/firmerr"
	"ssagraph/internal/flags"
	"ssagraph/internal/jumpthread"
	"ssagraph/internal/localopt"
	"ssagraph/internal/report"
	"ssagraph/internal/statsink"
	"ssagraph/internal/verify"
)

const version = "0.1.0"

// commandAliases mirrors the teacher's single-letter alias map.
var commandAliases = map[string]string{
	"r": "run",
	"c": "check",
	"l": "list",
	"v": "version",
	"h": "help",
}

func main() { os.Exit(run(os.Args[1:])) }

// run holds every subcommand's logic behind a plain exit code instead of
// calling os.Exit directly, so cmd/firmtool's testscript scenarios can
// drive it in-process via testscript.RunMain.
func run(args []string) int {
	if len(args) == 0 {
		showUsage()
		return 0
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "help", "--help", "-h":
		showUsage()
	case "version", "--version":
		fmt.Printf("firmtool %s\n", version)
	case "list":
		for _, name := range demo.Names() {
			fmt.Println(name)
		}
	case "check":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: firmtool check <program>")
			return 2
		}
		if err := runCheck(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "firmtool: %v\n", err)
			return 1
		}
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: firmtool run <program> [-fno-<opt>]... [--stats-dsn=<dsn>]")
			return 2
		}
		if err := runPipeline(args[1], args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "firmtool: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(os.Stderr, "firmtool: unknown command %q\n\n", cmd)
		showUsage()
		return 2
	}
	return 0
}

func showUsage() {
	fmt.Println("firmtool - sea-of-nodes IR kernel driver")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  firmtool list                         List the built-in sample programs  (alias: l)")
	fmt.Println("  firmtool check <program>               Build and verify a program          (alias: c)")
	fmt.Println("  firmtool run <program> [flags]         Run the full pipeline on a program  (alias: r)")
	fmt.Println("  firmtool version                       Print the tool version              (alias: v)")
	fmt.Println()
	fmt.Println("Run flags:")
	fmt.Println("  -fno-<opt>          Disable one named optimization (see internal/flags.All)")
	fmt.Println("  --stats-dsn=<dsn>   Record pass events to a database/sql sink (sqlite:, postgres:, mysql:, sqlserver:)")
}

func runCheck(name string) error {
	g, err := demo.Build(name)
	if err != nil {
		return err
	}
	defer g.Arena().Free()

	rep := verify.Graph(g, verify.Options{})
	rep.Fprint(os.Stdout)
	if !rep.Clean() {
		return fmt.Errorf("verify: %q failed structural verification", name)
	}
	return nil
}

func runPipeline(name string, rest []string) error {
	freg := flags.NewRegistry()
	var statsDSN string
	for _, arg := range rest {
		switch {
		case strings.HasPrefix(arg, "-fno-"):
			opt := flags.Opt(strings.TrimPrefix(arg, "-fno-"))
			if !knownOpt(opt) {
				fmt.Fprintln(os.Stderr, firmerr.ConfigWarning(string(opt)))
				continue
			}
			freg.Set(opt, false)
		case strings.HasPrefix(arg, "--stats-dsn="):
			statsDSN = strings.TrimPrefix(arg, "--stats-dsn=")
		default:
			fmt.Fprintln(os.Stderr, firmerr.ConfigWarning(arg))
		}
	}

	if statsDSN != "" {
		sink, err := statsink.OpenSQLSink(statsDSN)
		if err != nil {
			return err
		}
		defer sink.Close()
		statsink.Set(sink)
		defer statsink.Set(nil)
	}

	g, err := demo.Build(name)
	if err != nil {
		return err
	}
	defer g.Arena().Free()

	statsink.Fire(statsink.Event{Pass: "construct", Entity: g.Entity, Kind: "graph_built"})

	stages := []struct {
		label string
		run   func() *report.Report
	}{
		{"verify", func() *report.Report { return verify.Graph(g, verify.Options{}) }},
		{"local-opts", func() *report.Report { return localopt.Do(g, freg) }},
		{"jump-threading", func() *report.Report { return jumpthread.Thread(g) }},
		{"verify (post-opt)", func() *report.Report {
			doms := analysis.ComputeDoms(g)
			return verify.Graph(g, verify.Options{CheckDominance: true, Doms: doms})
		}},
	}

	for _, stage := range stages {
		rep := stage.run()
		rep.Fprint(os.Stdout)
		statsink.Fire(statsink.Event{Pass: stage.label, Entity: g.Entity, Kind: "pass_complete", Count: rep.Count(report.Info)})
		if !rep.Clean() {
			return fmt.Errorf("%s: verification failed on %q", stage.label, name)
		}
	}
	return nil
}

func knownOpt(opt flags.Opt) bool {
	for _, o := range flags.All {
		if o == opt {
			return true
		}
	}
	return false
}
