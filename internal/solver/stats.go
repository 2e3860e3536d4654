package solver

import (
	"fmt"
	"os"

	"fuzzysat/internal/astinfo"
)

// Stats accumulates evaluator traffic across a context's lifetime.
type Stats struct {
	Evaluations  uint64
	SkippedEvals uint64
	SatQueries   uint64
	OptQueries   uint64
	Timeouts     uint64
}

// Stats returns the cumulative counters.
func (ctx *Context) Stats() Stats { return ctx.stats }

const queryStatsPath = "/tmp/fuzzy-log-info.csv"

// logQueryStats appends one row to the optimistic-query CSV each time a
// branch condition enters the cascade (every clause of a conjunction,
// and every rerun, gets its own row) when LOG_QUERY_STATS is on.
func (ctx *Context) logQueryStats(info *astinfo.Record, isITS bool) {
	if !ctx.cfg.LogQueryStats {
		return
	}
	f, err := os.OpenFile(queryStatsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Errorf("cannot open query stats log: %s", err)
		return
	}
	defer f.Close()

	its := 0
	if isITS {
		its = 1
	}
	fmt.Fprintf(f, "%d,%d,%d,%d,%d,%d,%d\n",
		ctx.id, info.QuerySize, len(info.Indexes), len(info.IndexGroups),
		its, info.LinearOps, info.NonlinearOps)
}
