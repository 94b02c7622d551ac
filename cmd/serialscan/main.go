// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command serialscan walks a Java serialized-object stream and
// reports whether it is safe to deserialize, without ever
// deserializing it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"code.hybscloud.com/serialscan"
	"code.hybscloud.com/serialscan/cmd/serialscan/report"
)

// Exit codes (spec §1's CLI surface): 0 safe, 1 unsafe, 2 scan error
// (corrupted input, I/O failure, bad flags).
const (
	exitSafe      = 0
	exitUnsafe    = 1
	exitScanError = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return exitScanError
	}
	return exitCode
}

// exitCode is set by scanRun's RunE; cobra itself has no notion of a
// process exit code beyond error/no-error, so the subcommand threads
// it back through this package-level value, read once by run after
// Execute returns cleanly.
var exitCode int

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "serialscan",
		Short: "Scan Java serialized-object streams for denial-of-service amplification",
	}
	root.AddCommand(newScanCommand())
	return root
}

type scanFlags struct {
	json          bool
	maxArraySize  int64
	maxReferences int64
	noColor       bool
	quiet         bool
}

func newScanCommand() *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Scan a single stream file and print a verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanRun(cmd, args[0], flags)
		},
	}
	cmd.Flags().BoolVar(&flags.json, "json", false, "emit line-delimited JSON instead of colorized text")
	cmd.Flags().Int64Var(&flags.maxArraySize, "max-array-size", 0, "override the totalArraySize ceiling (0 = default)")
	cmd.Flags().Int64Var(&flags.maxReferences, "max-references", 0, "override the per-traversal refCount ceiling (0 = default)")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable ANSI color in text output")
	cmd.Flags().BoolVar(&flags.quiet, "quiet", false, "suppress info/warn/descriptor/graph text output, print only the verdict (no effect with --json)")
	return cmd
}

func scanRun(cmd *cobra.Command, path string, flags scanFlags) error {
	log, err := zap.NewProduction()
	if err != nil {
		// A logger that can't be built is not itself a scan failure, but
		// we have nothing better to fall back on here.
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		exitCode = exitScanError
		return nil
	}
	defer func() { _ = f.Close() }()

	var opts []serialscan.Option
	opts = append(opts, serialscan.WithBlock())
	if flags.maxArraySize > 0 {
		opts = append(opts, serialscan.WithArraySizeMax(flags.maxArraySize))
	}
	if flags.maxReferences > 0 {
		opts = append(opts, serialscan.WithReferenceMax(flags.maxReferences))
	}

	var sink serialscan.Sink
	if flags.json {
		sink = report.NewJSONLines(cmd.OutOrStdout(), log)
	} else {
		sink = report.NewConsole(cmd.OutOrStdout(), log, flags.noColor, flags.quiet)
	}

	v, _ := serialscan.Scan(f, sink, opts...)
	exitCode = exitCodeFor(v)
	return nil
}

// exitCodeFor maps a Verdict to the process exit code: Safe is 0, an
// Unsafe verdict driven by one of the two DoS ceilings is 1, and every
// other failure reason (a parse-level error) is 2.
func exitCodeFor(v serialscan.Verdict) int {
	if v.Safe {
		return exitSafe
	}
	switch v.Reason {
	case serialscan.KindArrayTooLarge, serialscan.KindReferenceTooComplex:
		return exitUnsafe
	default:
		return exitScanError
	}
}
