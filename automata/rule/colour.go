package rule

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/colornames"
)

type ColourKind int

const (
	ColourSingle ColourKind = iota
	ColourStateLerp
	ColourDistanceToCenter
	ColourNeighbour
)

var colourKindNames = map[ColourKind]string{
	ColourSingle:           "single",
	ColourStateLerp:        "state_lerp",
	ColourDistanceToCenter: "distance_to_center",
	ColourNeighbour:        "neighbour",
}

func (k ColourKind) String() string {
	if s, ok := colourKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ColourKind(%d)", int(k))
}

func ParseColourKind(s string) (ColourKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range colourKindNames {
		if s == name {
			return k, nil
		}
	}
	return ColourSingle, fmt.Errorf("%w: unknown colour method %q", ErrUnknownColour, s)
}

// ColourMethod picks a cube colour from a cell's state. Single ignores To.
type ColourMethod struct {
	Kind     ColourKind
	From, To mgl32.Vec4
}

func SingleColour(c mgl32.Vec4) ColourMethod { return ColourMethod{Kind: ColourSingle, From: c, To: c} }
func StateLerp(from, to mgl32.Vec4) ColourMethod {
	return ColourMethod{Kind: ColourStateLerp, From: from, To: to}
}
func DistanceToCenter(center, bounds mgl32.Vec4) ColourMethod {
	return ColourMethod{Kind: ColourDistanceToCenter, From: center, To: bounds}
}
func NeighbourLerp(from, to mgl32.Vec4) ColourMethod {
	return ColourMethod{Kind: ColourNeighbour, From: from, To: to}
}

// Colour returns the colour of a cell with the given state and neighbour
// count. distance is the normalised distance to the grid centre.
func (c ColourMethod) Colour(states, state, neighbours uint8, distance float32) mgl32.Vec4 {
	switch c.Kind {
	case ColourStateLerp:
		if states == 0 {
			return c.From
		}
		return LerpColour(c.From, c.To, float32(state)/float32(states))
	case ColourDistanceToCenter:
		return LerpColour(c.From, c.To, distance)
	case ColourNeighbour:
		return LerpColour(c.From, c.To, float32(neighbours)/MaxNeighbours)
	default:
		return c.From
	}
}

// LerpColour blends from a to b. t is clamped to [0,1].
func LerpColour(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	t = mgl32.Clamp(t, 0, 1)
	return a.Mul(1 - t).Add(b.Mul(t))
}

// ParseColour accepts an SVG colour name or #rrggbb / #rrggbbaa.
func ParseColour(s string) (mgl32.Vec4, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "#") {
		b, err := hex.DecodeString(s[1:])
		if err != nil || (len(b) != 3 && len(b) != 4) {
			return mgl32.Vec4{}, fmt.Errorf("%w: bad hex colour %q", ErrUnknownColour, s)
		}
		c := mgl32.Vec4{float32(b[0]) / 255, float32(b[1]) / 255, float32(b[2]) / 255, 1}
		if len(b) == 4 {
			c[3] = float32(b[3]) / 255
		}
		return c, nil
	}

	rgba, ok := colornames.Map[s]
	if !ok {
		return mgl32.Vec4{}, fmt.Errorf("%w: %q", ErrUnknownColour, s)
	}
	return mgl32.Vec4{
		float32(rgba.R) / 255,
		float32(rgba.G) / 255,
		float32(rgba.B) / 255,
		float32(rgba.A) / 255,
	}, nil
}
