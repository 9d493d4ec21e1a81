package rule

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

var (
	Black  = mgl32.Vec4{0, 0, 0, 1}
	Red    = mgl32.Vec4{1, 0, 0, 1}
	Green  = mgl32.Vec4{0, 1, 0, 1}
	Blue   = mgl32.Vec4{0, 0, 1, 1}
	Yellow = mgl32.Vec4{1, 1, 0, 1}
)

const DefaultPreset = "slowly-expanding-blob"

type Preset struct {
	Name string
	Rule Rule
}

// Builtin returns a fresh copy of the bundled presets.
func Builtin() []Preset {
	return []Preset{
		{"builder", Rule{
			Survival: Singles(2, 6, 9), Birth: Singles(4, 6, 8, 9, 10), States: 10,
			Neighbours: Moore, Bounds: DefaultBounds, Colour: DistanceToCenter(Yellow, Red),
		}},
		{"von-neumann-pyramid", Rule{
			Survival: Range(0, 6), Birth: Singles(1, 3), States: 2,
			Neighbours: VonNeumann, Bounds: DefaultBounds, Colour: DistanceToCenter(Green, Blue),
		}},
		{"fancy-pattern", Rule{
			Survival: Singles(0, 1, 2, 3, 7, 8, 9, 11, 13, 18, 21, 22, 24, 26),
			Birth:    Singles(4, 13, 17, 20, 21, 22, 23, 24, 26), States: 4,
			Neighbours: Moore, Bounds: DefaultBounds, Colour: StateLerp(Red, Blue),
		}},
		{"crystals", Rule{
			Survival: Singles(5, 6, 7, 8), Birth: Singles(6, 7, 9), States: 10,
			Neighbours: Moore, Bounds: DefaultBounds, Colour: DistanceToCenter(Green, Blue),
		}},
		{"swapping-structures", Rule{
			Survival: Singles(3, 6, 9), Birth: Singles(4, 8, 10), States: 20,
			Neighbours: Moore, Bounds: DefaultBounds, Colour: StateLerp(Red, Green),
		}},
		{DefaultPreset, Rule{
			Survival: Range(9, 26), Birth: Singles(5, 6, 7, 12, 13, 15), States: 20,
			Neighbours: Moore, Bounds: DefaultBounds, Colour: StateLerp(Blue, Red),
		}},
		{"445", Rule{
			Survival: Single(4), Birth: Single(4), States: 5,
			Neighbours: Moore, Bounds: DefaultBounds, Colour: StateLerp(Black, Red),
		}},
		{"expand-then-die", Rule{
			Survival: Single(4), Birth: Single(3), States: 20,
			Neighbours: Moore, Bounds: DefaultBounds, Colour: StateLerp(Black, Red),
		}},
		{"pulse", Rule{
			Survival: Singles(6, 7), Birth: Singles(4, 6, 9, 10, 11), States: 6,
			Neighbours: Moore, Bounds: DefaultBounds, Colour: StateLerp(Blue, Red),
		}},
		{"large-lines", Rule{
			Survival: Single(5), Birth: Singles(4, 6, 9, 10, 11, 16, 17, 18, 19, 20, 21, 22, 23, 24), States: 35,
			Neighbours: Moore, Bounds: DefaultBounds, Colour: StateLerp(Blue, Red),
		}},
	}
}

func Default() Rule {
	r, _ := Lookup(DefaultPreset, nil)
	return r
}

// Lookup finds a preset by name. extra presets shadow the builtin ones.
func Lookup(name string, extra []Preset) (Rule, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range extra {
		if strings.ToLower(p.Name) == name {
			return p.Rule, nil
		}
	}
	for _, p := range Builtin() {
		if p.Name == name {
			return p.Rule, nil
		}
	}
	return Rule{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Names lists builtin and extra preset names, sorted and deduplicated.
func Names(extra []Preset) []string {
	set := map[string]struct{}{}
	for _, p := range Builtin() {
		set[p.Name] = struct{}{}
	}
	for _, p := range extra {
		set[strings.ToLower(p.Name)] = struct{}{}
	}
	res := make([]string, 0, len(set))
	for n := range set {
		res = append(res, n)
	}
	sort.Strings(res)
	return res
}

type presetFile struct {
	Presets []presetEntry `yaml:"presets"`
}

type presetEntry struct {
	Name   string       `yaml:"name"`
	Rule   string       `yaml:"rule"`
	Bounds int          `yaml:"bounds"`
	Colour *colourEntry `yaml:"colour"`
}

type colourEntry struct {
	Method string `yaml:"method"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
}

// LoadPresets decodes a YAML preset list:
//
//	presets:
//	  - name: crystals
//	    rule: 5,6,7,8/6,7,9/10/M
//	    bounds: 50
//	    colour: {method: distance_to_center, from: lime, to: blue}
func LoadPresets(r io.Reader) ([]Preset, error) {
	var file presetFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	res := make([]Preset, 0, len(file.Presets))
	for i, e := range file.Presets {
		if e.Name == "" {
			return nil, fmt.Errorf("preset #%d: %w: missing name", i, ErrInvalidNotation)
		}
		rl, err := ParseNotation(e.Rule)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", e.Name, err)
		}
		if e.Bounds != 0 {
			rl.Bounds = e.Bounds
		}
		if e.Colour != nil {
			if rl.Colour, err = e.Colour.method(); err != nil {
				return nil, fmt.Errorf("preset %q: %w", e.Name, err)
			}
		}
		if err := rl.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", e.Name, err)
		}
		res = append(res, Preset{Name: e.Name, Rule: rl})
	}
	return res, nil
}

func LoadPresetFile(path string) ([]Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadPresets(f)
}

func (c *colourEntry) method() (ColourMethod, error) {
	kind, err := ParseColourKind(c.Method)
	if err != nil {
		return ColourMethod{}, err
	}
	from, err := ParseColour(c.From)
	if err != nil {
		return ColourMethod{}, err
	}
	to := from
	if c.To != "" {
		if to, err = ParseColour(c.To); err != nil {
			return ColourMethod{}, err
		}
	}
	return ColourMethod{Kind: kind, From: from, To: to}, nil
}
