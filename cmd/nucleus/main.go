// Command nucleus is the minimal REPL/one-shot front end around a Session
// (SPEC_FULL.md's Supplemented Features): load a document, then read
// Nucleus expressions one per line from stdin and print the Response
// preview for each, the way opal-lang-opal's cli/main.go exercises its
// parser/executor pair end to end from a single cobra command.
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nucleuslang/nucleus/internal/config"
	"github.com/nucleuslang/nucleus/internal/session"
)

func main() {
	var configPath string
	var execOnce string
	var timeoutMs int

	rootCmd := &cobra.Command{
		Use:           "nucleus [document]",
		Short:         "Load a document and evaluate Nucleus expressions against it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], configPath, execOnce, timeoutMs)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults applied for anything absent)")
	rootCmd.Flags().StringVar(&execOnce, "exec", "", "evaluate a single expression and exit instead of starting the REPL")
	rootCmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "per-call deadline in milliseconds (0 = none)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nucleus:", err)
		os.Exit(1)
	}
}

func run(docPath, configPath, execOnce string, timeoutMs int) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	sess := session.New(cfg)
	defer sess.Close()

	loadResult, lerr := sess.LoadFile(docPath)
	if lerr != nil {
		return fmt.Errorf("loading document: %s", lerr.Message)
	}
	fmt.Fprintf(os.Stderr, "loaded %s: %d lines, %d bytes\n", docPath, loadResult.LineCount, loadResult.Length)

	timeout := time.Duration(timeoutMs) * time.Millisecond

	if execOnce != "" {
		printResponse(sess.Execute(execOnce, timeout))
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	fmt.Fprint(os.Stderr, "nucleus> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			fmt.Fprint(os.Stderr, "nucleus> ")
			continue
		}
		printResponse(sess.Execute(line, timeout))
		fmt.Fprint(os.Stderr, "nucleus> ")
	}
	return scanner.Err()
}

func printResponse(resp session.Response) {
	if !resp.OK {
		fmt.Printf("error[%s]: %s\n", resp.Error.Kind, resp.Error.Message)
	} else {
		fmt.Printf("=> %s\n", renderPreview(*resp.Value))
	}
	for _, l := range resp.Logs {
		fmt.Printf("# %s\n", l)
	}
}

func renderPreview(p session.Preview) string {
	switch p.Kind {
	case "Null":
		return "null"
	case "Bool":
		return fmt.Sprintf("%v", p.Bool)
	case "Int":
		return fmt.Sprintf("%d", p.Int)
	case "Float":
		return fmt.Sprintf("%g", p.Float)
	case "Str":
		return p.Str
	case "List":
		out := "["
		for i, el := range p.List {
			if i > 0 {
				out += ", "
			}
			out += renderPreview(el)
		}
		if p.Truncated {
			out += ", …"
		}
		return out + "]"
	case "Record", "GrepHit", "FuzzyHit":
		out := "{"
		for i, f := range p.Record {
			if i > 0 {
				out += ", "
			}
			out += f.Key + ": " + renderPreview(f.Value)
		}
		return out + "}"
	case "Lambda":
		return p.Str
	}
	return ""
}
