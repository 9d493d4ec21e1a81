package rule

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxNeighbours is the largest neighbour count any neighbourhood produces.
const MaxNeighbours = 26

// Value is a set of neighbour counts, used for both the survival and the
// birth condition of a rule.
type Value struct {
	mask uint32
}

func Single(n uint8) Value {
	return Singles(n)
}

// Range holds every count strictly between lo and hi: both ends are
// excluded, so Range(9, 26) is 10 through 25 and Range(4, 5) is empty.
func Range(lo, hi uint8) Value {
	var v Value
	for n := int(lo) + 1; n < int(hi) && n <= MaxNeighbours; n++ {
		v.mask |= 1 << uint(n)
	}
	return v
}

func Singles(ns ...uint8) Value {
	var v Value
	for _, n := range ns {
		if n <= MaxNeighbours {
			v.mask |= 1 << n
		}
	}
	return v
}

func (v Value) Contains(n uint8) bool {
	return n <= MaxNeighbours && v.mask&(1<<n) != 0
}

func (v Value) IsEmpty() bool { return v.mask == 0 }

// Counts lists the members in ascending order.
func (v Value) Counts() []uint8 {
	var res []uint8
	for n := uint8(0); n <= MaxNeighbours; n++ {
		if v.Contains(n) {
			res = append(res, n)
		}
	}
	return res
}

// minRangeRun is the shortest run of counts String writes as a range.
const minRangeRun = 4

// String renders the set as comma separated counts. Runs of at least
// minRangeRun counts become lo-hi with the exclusive bounds of Range, unless
// the run touches 0 or MaxNeighbours and has no bound to write.
func (v Value) String() string {
	var parts []string
	n := 0
	for n <= MaxNeighbours {
		if !v.Contains(uint8(n)) {
			n++
			continue
		}
		start := n
		for n+1 <= MaxNeighbours && v.Contains(uint8(n+1)) {
			n++
		}
		if n-start+1 >= minRangeRun && start > 0 && n < MaxNeighbours {
			parts = append(parts, fmt.Sprintf("%d-%d", start-1, n+1))
		} else {
			for c := start; c <= n; c++ {
				parts = append(parts, strconv.Itoa(c))
			}
		}
		n++
	}
	return strings.Join(parts, ",")
}

// ParseValue reads the String form: counts and lo-hi ranges, the latter
// excluding both bounds. An empty string is the empty set.
func ParseValue(s string) (Value, error) {
	var v Value
	s = strings.TrimSpace(s)
	if s == "" {
		return v, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")

		a, err := parseCount(lo)
		if err != nil {
			return Value{}, err
		}
		if !isRange {
			v.mask |= 1 << a
			continue
		}

		b, err := parseCount(hi)
		if err != nil {
			return Value{}, err
		}
		if a > b {
			return Value{}, fmt.Errorf("%w: range %q is reversed", ErrValueOutOfRange, part)
		}
		v.mask |= Range(a, b).mask
	}
	return v, nil
}

func parseCount(s string) (uint8, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a neighbour count", ErrInvalidNotation, s)
	}
	if n < 0 || n > MaxNeighbours {
		return 0, fmt.Errorf("%w: %d not in 0..%d", ErrValueOutOfRange, n, MaxNeighbours)
	}
	return uint8(n), nil
}
