package evo

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var ErrUnknownSelector = errors.New("unknown selector")

// selectorUsage lists the selector spec forms accepted by ParseSelector.
var selectorUsage = map[string]string{
	"roulette":         "roulette",
	"sus":              "sus",
	"tournament":       "tournament[:sample-size]",
	"truncation":       "truncation[:max-rank]",
	"linear-rank":      "linear-rank[:nminus]",
	"exponential-rank": "exponential-rank[:c]",
	"boltzmann":        "boltzmann[:b]",
	"monte-carlo":      "monte-carlo",
	"elite":            "elite[:count][/selector]",
}

// Default selector parameters.
const (
	DefaultTournamentSize  = 2
	DefaultLinearRankMinus = 0.5
	DefaultExponentialBase = 0.975
	DefaultBoltzmannFactor = 4.0
	DefaultEliteCount      = 1
)

// SelectorNames returns the selector names known to ParseSelector.
func SelectorNames() []string {
	names := make([]string, 0, len(selectorUsage))
	for name := range selectorUsage {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SelectorUsage returns the flag syntax of a selector name.
func SelectorUsage(name string) (string, bool) {
	usage, ok := selectorUsage[name]
	return usage, ok
}

// ParseSelector builds a selector from a spec such as "tournament:3" or
// "elite:2/roulette". Elite selectors without a nested selector fill with
// a size 3 tournament.
func ParseSelector[G any](spec string) (Selector[G], error) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	head, rest, nested := strings.Cut(spec, "/")
	name, arg, hasArg := strings.Cut(head, ":")
	if nested && name != "elite" {
		return nil, fmt.Errorf("%w: only elite wraps another selector: %q", ErrUnknownSelector, spec)
	}

	switch name {
	case "roulette", "sus", "monte-carlo":
		if hasArg {
			return nil, fmt.Errorf("%s takes no argument: %q", name, spec)
		}
		switch name {
		case "roulette":
			return NewRouletteWheelSelector[G](), nil
		case "sus":
			return NewStochasticUniversalSelector[G](), nil
		default:
			return MonteCarloSelector[G]{}, nil
		}
	case "tournament":
		size, err := intArg(arg, hasArg, DefaultTournamentSize)
		if err != nil {
			return nil, err
		}
		return asSelector[G](NewTournamentSelector[G](size))
	case "truncation":
		if !hasArg {
			return UnboundedTruncationSelector[G](), nil
		}
		rank, err := intArg(arg, hasArg, 0)
		if err != nil {
			return nil, err
		}
		return asSelector[G](NewTruncationSelector[G](rank))
	case "linear-rank":
		nminus, err := floatArg(arg, hasArg, DefaultLinearRankMinus)
		if err != nil {
			return nil, err
		}
		return asSelector[G](NewLinearRankSelector[G](nminus))
	case "exponential-rank":
		c, err := floatArg(arg, hasArg, DefaultExponentialBase)
		if err != nil {
			return nil, err
		}
		return asSelector[G](NewExponentialRankSelector[G](c))
	case "boltzmann":
		b, err := floatArg(arg, hasArg, DefaultBoltzmannFactor)
		if err != nil {
			return nil, err
		}
		return asSelector[G](NewBoltzmannSelector[G](b))
	case "elite":
		count, err := intArg(arg, hasArg, DefaultEliteCount)
		if err != nil {
			return nil, err
		}
		var inner Selector[G] = &TournamentSelector[G]{sampleSize: 3}
		if nested {
			if inner, err = ParseSelector[G](rest); err != nil {
				return nil, fmt.Errorf("elite: %w", err)
			}
		}
		return asSelector[G](NewEliteSelector(count, inner))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSelector, spec)
	}
}

func intArg(arg string, present bool, fallback int) (int, error) {
	if !present {
		return fallback, nil
	}
	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrParameter, arg)
	}
	return v, nil
}

func floatArg(arg string, present bool, fallback float64) (float64, error) {
	if !present {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrParameter, arg)
	}
	return v, nil
}

// asSelector keeps a failed constructor from returning a non-nil interface
// around a nil pointer.
func asSelector[G any, S Selector[G]](s S, err error) (Selector[G], error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
