// Package solver implements the mutation-based decision procedure: a
// cascade of solving phases from syntactic injection to gradient
// descent and havoc, coordinated per query by a conjunction handler.
package solver

import (
	"fmt"
	"os"
)

// Tunable constants of the cascade.
const (
	// RangeMaxWidthBruteForce bounds interval enumeration in the
	// simple-math and range-brute-force phases.
	RangeMaxWidthBruteForce = 2048
	// HavocStackPow2 bounds the mutation stack to 2^(1..1+7) entries.
	HavocStackPow2 = 7
	// HavocC scales havoc iterations: score = touched bytes * HavocC.
	HavocC = 20
	// ReseedInterval is how many PRNG draws pass between reseeds.
	ReseedInterval = 10000
)

// DetPolicy selects the deterministic-mutation variant.
type DetPolicy int

const (
	// DetGrouped walks groups of size 1/2/4/8 (the default).
	DetGrouped DetPolicy = iota
	// DetPerByte walks raw bytes instead of detected groups.
	DetPerByte
)

// HavocPolicy selects the havoc mutation target.
type HavocPolicy int

const (
	// HavocPerQuery mutates only bytes the branch condition touches.
	HavocPerQuery HavocPolicy = iota
	// HavocWholeInput mutates any byte of the input.
	HavocWholeInput
)

// Config carries the environment-driven switches of the cascade.
// Every boolean key accepts "0" or "1"; anything else aborts.
type Config struct {
	SkipNotify              bool
	SkipReuse               bool
	SkipInputToState        bool
	SkipSimpleMath          bool
	SkipInputToStateExt     bool
	SkipBruteForce          bool
	SkipRangeBruteForce     bool
	SkipRangeBruteForceOpt  bool
	SkipDeterministic       bool
	SkipSingleWalkingBit    bool
	SkipTwoWalkingBit       bool
	SkipFourWalkingBit      bool
	SkipByteFlip            bool
	SkipArith8              bool
	SkipArith16             bool
	SkipArith32             bool
	SkipArith64             bool
	SkipInt8                bool
	SkipInt16               bool
	SkipInt32               bool
	SkipInt64               bool
	SkipFlipShort           bool
	SkipFlipInt             bool
	SkipFlipLong            bool
	SkipHavoc               bool
	SkipGradientDescend     bool
	UseGreedyMamin          bool
	CheckUnnecessaryEval    bool
	LogQueryStats           bool

	Det   DetPolicy
	Havoc HavocPolicy
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch v {
	case "0":
		return false
	case "1":
		return true
	}
	panic(fmt.Sprintf("solver: env %s must be \"0\" or \"1\", got %q", key, v))
}

// ConfigFromEnv reads the recognised keys with their documented
// defaults. Note SKIP_REUSE defaults on: replaying auxiliary seeds is
// rarely worth it outside concolic loops that actually supply them.
func ConfigFromEnv() *Config {
	return &Config{
		SkipNotify:             envBool("SKIP_NOTIFY", false),
		SkipReuse:              envBool("SKIP_REUSE", true),
		SkipInputToState:       envBool("SKIP_INPUT_TO_STATE", false),
		SkipSimpleMath:         envBool("SKIP_SIMPLE_MATH", false),
		SkipInputToStateExt:    envBool("SKIP_INPUT_TO_STATE_EXTENDED", false),
		SkipBruteForce:         envBool("SKIP_BRUTE_FORCE", false),
		SkipRangeBruteForce:    envBool("SKIP_RANGE_BRUTE_FORCE", false),
		SkipRangeBruteForceOpt: envBool("SKIP_RANGE_BRUTE_FORCE_OPT", false),
		SkipDeterministic:      envBool("SKIP_DETERMINISTIC", false),
		SkipSingleWalkingBit:   envBool("SKIP_SINGLE_WALKING_BIT", false),
		SkipTwoWalkingBit:      envBool("SKIP_TWO_WALKING_BIT", false),
		SkipFourWalkingBit:     envBool("SKIP_FOUR_WALKING_BIT", false),
		SkipByteFlip:           envBool("SKIP_BYTE_FLIP", false),
		SkipArith8:             envBool("SKIP_ARITH8", false),
		SkipArith16:            envBool("SKIP_ARITH16", false),
		SkipArith32:            envBool("SKIP_ARITH32", false),
		SkipArith64:            envBool("SKIP_ARITH64", false),
		SkipInt8:               envBool("SKIP_INT8", false),
		SkipInt16:              envBool("SKIP_INT16", false),
		SkipInt32:              envBool("SKIP_INT32", false),
		SkipInt64:              envBool("SKIP_INT64", false),
		SkipFlipShort:          envBool("SKIP_FLIP_SHORT", false),
		SkipFlipInt:            envBool("SKIP_FLIP_INT", false),
		SkipFlipLong:           envBool("SKIP_FLIP_LONG", false),
		SkipHavoc:              envBool("SKIP_HAVOC", false),
		SkipGradientDescend:    envBool("SKIP_GRADIENT_DESCEND", false),
		UseGreedyMamin:         envBool("USE_GREEDY_MAMIN", false),
		CheckUnnecessaryEval:   envBool("CHECK_UNNECESSARY_EVAL", true),
		LogQueryStats:          envBool("LOG_QUERY_STATS", false),
	}
}
