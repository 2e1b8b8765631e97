package cpm

import (
	"fmt"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

// window is a node's start and finish as day numbers; finish is inclusive.
type window struct {
	start, finish int
}

// rule is the arithmetic of one dependency type, in both directions.
type rule struct {
	// startFloor is the earliest start the edge allows the successor.
	startFloor func(pred window, lag, succSpan int) int
	// finishCeiling is the latest finish the edge allows the predecessor.
	finishCeiling func(succ window, lag, predSpan int) int
}

var rules = map[domain.DependencyType]rule{
	// successor starts the day after the predecessor finishes
	domain.FinishToStart: {
		startFloor: func(p window, lag, _ int) int {
			return p.finish + 1 + lag
		},
		finishCeiling: func(s window, lag, _ int) int {
			return s.start - 1 - lag
		},
	},
	domain.StartToStart: {
		startFloor: func(p window, lag, _ int) int {
			return p.start + lag
		},
		finishCeiling: func(s window, lag, predSpan int) int {
			return s.start - lag + predSpan
		},
	},
	domain.FinishToFinish: {
		startFloor: func(p window, lag, succSpan int) int {
			return p.finish + lag - succSpan
		},
		finishCeiling: func(s window, lag, _ int) int {
			return s.finish - lag
		},
	},
	domain.StartToFinish: {
		startFloor: func(p window, lag, succSpan int) int {
			return p.start + lag - succSpan
		},
		finishCeiling: func(s window, lag, predSpan int) int {
			return s.finish - lag + predSpan
		},
	},
}

func init() {
	for _, t := range domain.DependencyTypes {
		if _, ok := rules[t]; !ok {
			panic(fmt.Sprintf("cpm: no scheduling rule for dependency type %s", t))
		}
	}
}

// ruleFor returns the rule for t. Unknown types are treated as finish_to_start.
func ruleFor(t domain.DependencyType) rule {
	if r, ok := rules[t]; ok {
		return r
	}
	return rules[domain.FinishToStart]
}
