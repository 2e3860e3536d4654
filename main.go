// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	_ "github.com/tliron/commonlog/simple"

	"fuzzysat/grammar"
	"fuzzysat/internal/ast"
	"fuzzysat/internal/solver"
	"fuzzysat/internal/testcase"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: fuzzysat <file.fq>")
		os.Exit(1)
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	qf, err := grammar.ParseSource(path, string(source))
	if err != nil {
		grammar.ReportParseError(string(source), err)
		os.Exit(1)
	}

	seed, assumes, solve, err := qf.Query.Lower()
	if err != nil {
		color.Red("Invalid query: %s", err)
		os.Exit(1)
	}

	tc := &testcase.Testcase{
		Values: make([]uint64, len(seed)),
		Sizes:  make([]uint8, len(seed)),
	}
	for i, b := range seed {
		tc.Values[i] = uint64(b)
		tc.Sizes[i] = 8
	}

	ctx := solver.FromSeed(tc, nil, nil, time.Second)
	var pi *ast.Node
	if len(assumes) > 0 {
		pi = ast.NewAnd(assumes...)
		for _, a := range assumes {
			ctx.NotifyConstraint(a)
		}
	}

	proof, ok := ctx.QueryCheckLight(pi, solve)
	if ok {
		color.Green("SAT")
		fmt.Printf("proof: % x\n", proof)
		return
	}

	color.Yellow("UNKNOWN")
	if opt, found := ctx.GetOptimisticSol(); found {
		fmt.Printf("optimistic: % x\n", opt)
	}
}
