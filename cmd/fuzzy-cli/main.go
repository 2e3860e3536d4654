// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"fuzzysat/grammar"
	"fuzzysat/internal/ast"
	"fuzzysat/internal/solver"
	"fuzzysat/internal/testcase"
	"fuzzysat/repl"
)

var (
	flagTimeout   time.Duration
	flagTestcases string
	flagProofOut  string
	flagVerbose   int
	flagInputLen  int
)

func main() {
	root := &cobra.Command{
		Use:   "fuzzy-cli",
		Short: "Approximate mutation-based solver for bitvector queries",
	}
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", time.Second, "per-query deadline")
	root.PersistentFlags().StringVar(&flagTestcases, "testcases", "", "folder of auxiliary seeds for the reuse phase")
	root.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity")

	solve := &cobra.Command{
		Use:   "solve <file.fq>",
		Short: "Solve the query's branch condition under its assumptions",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	solve.Flags().StringVarP(&flagProofOut, "out", "o", "", "write the proof bytes to a file")

	minimize := &cobra.Command{
		Use:   "minimize <file.fq> <expr>",
		Short: "Minimise an expression under the query's assumptions",
		Args:  cobra.ExactArgs(2),
		RunE:  func(cmd *cobra.Command, args []string) error { return runOptimise(args, false) },
	}
	maximize := &cobra.Command{
		Use:   "maximize <file.fq> <expr>",
		Short: "Maximise an expression under the query's assumptions",
		Args:  cobra.ExactArgs(2),
		RunE:  func(cmd *cobra.Command, args []string) error { return runOptimise(args, true) },
	}
	values := &cobra.Command{
		Use:   "values <file.fq> <expr>",
		Short: "Enumerate distinct values of an expression under the assumptions",
		Args:  cobra.ExactArgs(2),
		RunE:  runValues,
	}
	parse := &cobra.Command{
		Use:   "parse <file.fq>",
		Short: "Parse a query file and dump its AST",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive query console over a zero seed",
		Args:  cobra.NoArgs,
		RunE:  runRepl,
	}
	replCmd.Flags().IntVar(&flagInputLen, "input", 8, "symbolic input length in bytes")

	root.AddCommand(solve, minimize, maximize, values, parse, replCmd)
	cobra.OnInitialize(func() {
		commonlog.Configure(flagVerbose, nil)
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadQuery parses the file and builds a ready solver context with its
// assumptions notified.
func loadQuery(path string) (*solver.Context, *ast.Node, *ast.Node, error) {
	qf, err := grammar.ParseFile(path)
	if err != nil {
		if src, rerr := os.ReadFile(path); rerr == nil {
			grammar.ReportParseError(string(src), err)
		}
		return nil, nil, nil, err
	}
	seed, assumes, solve, err := qf.Query.Lower()
	if err != nil {
		return nil, nil, nil, err
	}

	tc := &testcase.Testcase{
		Values: make([]uint64, len(seed)),
		Sizes:  make([]uint8, len(seed)),
	}
	for i, b := range seed {
		tc.Values[i] = uint64(b)
		tc.Sizes[i] = 8
	}
	var aux []*testcase.Testcase
	if flagTestcases != "" {
		if aux, err = testcase.LoadFolder(flagTestcases); err != nil {
			return nil, nil, nil, err
		}
	}

	ctx := solver.FromSeed(tc, aux, nil, flagTimeout)
	var pi *ast.Node
	if len(assumes) > 0 {
		pi = ast.NewAnd(assumes...)
		for _, a := range assumes {
			ctx.NotifyConstraint(a)
		}
	}
	return ctx, pi, solve, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, pi, b, err := loadQuery(args[0])
	if err != nil {
		return err
	}

	proof, ok := ctx.QueryCheckLight(pi, b)
	if ok {
		color.Green("SAT")
		fmt.Println(hexBytes(proof))
		if flagProofOut != "" {
			return testcase.DumpProof(flagProofOut, proof)
		}
		return nil
	}

	color.Yellow("UNKNOWN")
	if opt, found := ctx.GetOptimisticSol(); found {
		fmt.Printf("optimistic: %s\n", hexBytes(opt))
		if flagProofOut != "" {
			return testcase.DumpProof(flagProofOut, opt)
		}
	}
	return nil
}

func runOptimise(args []string, max bool) error {
	ctx, pi, _, err := loadQuery(args[0])
	if err != nil {
		return err
	}
	expr, err := parseExprArg(args[1])
	if err != nil {
		return err
	}

	var v uint64
	var proof []byte
	if max {
		v, proof = ctx.Maximize(pi, expr)
	} else {
		v, proof = ctx.Minimize(pi, expr)
	}
	fmt.Printf("value: 0x%x\n", v)
	fmt.Printf("witness: %s\n", hexBytes(proof))
	return nil
}

func runValues(cmd *cobra.Command, args []string) error {
	ctx, pi, _, err := loadQuery(args[0])
	if err != nil {
		return err
	}
	expr, err := parseExprArg(args[1])
	if err != nil {
		return err
	}

	count := 0
	ctx.FindAllValues(expr, pi, func(proof []byte, v uint64) solver.FindAllAction {
		count++
		fmt.Printf("0x%x\t%s\n", v, hexBytes(proof))
		return solver.FindAllContinue
	})
	color.Green("%d distinct values", count)
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	_, pi, b, err := loadQuery(args[0])
	if err != nil {
		return err
	}
	if pi != nil {
		fmt.Printf("assume: %s\n", pi)
	}
	fmt.Printf("solve:  %s\n", b)
	color.Green("✅ Successfully parsed %s", args[0])
	return nil
}

func runRepl(cmd *cobra.Command, args []string) error {
	tc := &testcase.Testcase{
		Values: make([]uint64, flagInputLen),
		Sizes:  make([]uint8, flagInputLen),
	}
	for i := range tc.Sizes {
		tc.Sizes[i] = 8
	}
	ctx := solver.FromSeed(tc, nil, nil, flagTimeout)
	repl.Start(os.Stdin, os.Stdout, ctx, flagInputLen)
	return nil
}

func parseExprArg(src string) (*ast.Node, error) {
	e, err := grammar.ParseExpr(src)
	if err != nil {
		return nil, err
	}
	// the expression may reference any input byte of the query file;
	// lowering re-checks against a generous bound
	return grammar.LowerExpr(e, 1<<16)
}

func hexBytes(bs []byte) string {
	out := ""
	for i, b := range bs {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%02x", b)
	}
	return out
}
