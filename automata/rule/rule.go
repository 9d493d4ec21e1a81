// Package rule describes 3D cellular automata rules: which neighbour counts
// keep a cell alive or give birth to one, how many decay states a dying cell
// walks through, which neighbourhood is counted and how cells are coloured.
package rule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrInvalidNotation = errors.New("invalid rule notation")
	ErrValueOutOfRange = errors.New("neighbour count out of range")
	ErrInvalidStates   = errors.New("invalid state count")
	ErrInvalidBounds   = errors.New("invalid bounds")
	ErrUnknownPreset   = errors.New("unknown preset")
	ErrUnknownColour   = errors.New("unknown colour")
)

const DefaultBounds = 50

type Rule struct {
	Survival   Value
	Birth      Value
	States     uint8
	Neighbours NeighbourMethod
	Bounds     int
	Colour     ColourMethod
}

func (r *Rule) Validate() error {
	if r.States < 1 {
		return fmt.Errorf("%w: need at least 1 state, got %d", ErrInvalidStates, r.States)
	}
	if r.Bounds < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBounds, r.Bounds)
	}
	if r.Neighbours != Moore && r.Neighbours != VonNeumann {
		return fmt.Errorf("%w: neighbourhood %d", ErrInvalidNotation, r.Neighbours)
	}
	return nil
}

// ColourOf colours a cell according to the rule's colour method.
func (r *Rule) ColourOf(state, neighbours uint8, distance float32) mgl32.Vec4 {
	return r.Colour.Colour(r.States, state, neighbours, distance)
}

// Notation renders the rule as survival/birth/states/neighbourhood, e.g.
// "9-26/5,6,7,12,13,15/20/M".
func (r *Rule) Notation() string {
	return fmt.Sprintf("%s/%s/%d/%s", r.Survival, r.Birth, r.States, r.Neighbours)
}

func (r *Rule) String() string { return r.Notation() }

// ParseNotation reads the Notation form. Bounds and colour get defaults.
func ParseNotation(s string) (Rule, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 4 {
		return Rule{}, fmt.Errorf("%w: %q needs 4 '/' separated fields", ErrInvalidNotation, s)
	}

	survival, err := ParseValue(parts[0])
	if err != nil {
		return Rule{}, fmt.Errorf("survival: %w", err)
	}
	birth, err := ParseValue(parts[1])
	if err != nil {
		return Rule{}, fmt.Errorf("birth: %w", err)
	}
	states, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || states < 1 || states > 255 {
		return Rule{}, fmt.Errorf("%w: %q", ErrInvalidStates, parts[2])
	}
	neighbours, err := ParseNeighbourMethod(parts[3])
	if err != nil {
		return Rule{}, err
	}

	return Rule{
		Survival:   survival,
		Birth:      birth,
		States:     uint8(states),
		Neighbours: neighbours,
		Bounds:     DefaultBounds,
		Colour:     StateLerp(Blue, Red),
	}, nil
}
