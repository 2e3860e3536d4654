// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"fuzzysat/grammar"
	"fuzzysat/internal/ast"
	"fuzzysat/internal/solver"
)

const PROMPT = ">> "

// Start reads one s-expression per line and solves it against the
// running context. Lines starting with "assume " feed the path
// condition instead.
func Start(in io.Reader, out io.Writer, ctx *solver.Context, inputs int) {
	scanner := bufio.NewScanner(in)
	var assumes []*ast.Node

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		isAssume := false
		if rest, found := strings.CutPrefix(line, "assume "); found {
			line = rest
			isAssume = true
		}

		e, err := grammar.ParseExpr(line)
		if err != nil {
			grammar.ReportParseError(line, err)
			continue
		}
		n, err := grammar.LowerExpr(e, inputs)
		if err != nil {
			color.Red("error: %s", err)
			continue
		}

		if isAssume {
			assumes = append(assumes, n)
			ctx.NotifyConstraint(n)
			fmt.Fprintf(out, "assumed: %s\n", n)
			continue
		}

		var pi *ast.Node
		if len(assumes) > 0 {
			pi = ast.NewAnd(assumes...)
		}
		proof, ok := ctx.QueryCheckLight(pi, n)
		if ok {
			color.Green("SAT")
			fmt.Fprintf(out, "proof: % x\n", proof)
			continue
		}
		color.Yellow("UNKNOWN")
		if opt, found := ctx.GetOptimisticSol(); found {
			fmt.Fprintf(out, "optimistic: % x\n", opt)
		}
	}
}
