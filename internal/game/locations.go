package game

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Location is a candidate secret. Aliases are extra spellings a guess may use.
type Location struct {
	Name    string   `yaml:"name" json:"name"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// UnmarshalYAML accepts either a bare name or a {name, aliases} mapping.
func (l *Location) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		l.Name = node.Value
		l.Aliases = nil
		return nil
	}
	type plain Location
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

// Pools holds the secret candidates per mode.
type Pools map[Mode][]Location

var DefaultPools = Pools{
	ModeCountry: {
		{Name: "France"},
		{Name: "Japan"},
		{Name: "Brazil"},
		{Name: "Egypt"},
		{Name: "Australia"},
	},
	ModeCity: {
		{Name: "Paris"},
		{Name: "Tokyo"},
		{Name: "New York", Aliases: []string{"New York City", "NYC"}},
		{Name: "London"},
		{Name: "Sydney"},
	},
}

// LoadPools reads pools from a YAML file keyed by mode:
//
//	country: [France, {name: Japan, aliases: [Nippon]}]
//	city: [Paris]
func LoadPools(path string) (Pools, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}
	var raw map[string][]Location
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfiguration, path, err)
	}
	pools := make(Pools, len(raw))
	for k, locs := range raw {
		m, err := ParseMode(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		pools[m] = locs
	}
	if err := pools.Validate(); err != nil {
		return nil, err
	}
	return pools, nil
}

// Validate requires a non-empty pool of named locations for every mode.
func (p Pools) Validate() error {
	for _, m := range []Mode{ModeCountry, ModeCity} {
		locs := p[m]
		if len(locs) == 0 {
			return fmt.Errorf("%w: no locations for mode %s", ErrInvalidConfiguration, m)
		}
		for i, l := range locs {
			if l.Name == "" {
				return fmt.Errorf("%w: location %d for mode %s has no name", ErrInvalidConfiguration, i, m)
			}
		}
	}
	return nil
}

// Pick draws a location for mode uniformly at random.
func (p Pools) Pick(mode Mode, rng *rand.Rand) (Location, error) {
	if !mode.Valid() {
		return Location{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, ErrInvalidMode)
	}
	locs := p[mode]
	if len(locs) == 0 {
		return Location{}, fmt.Errorf("%w: no locations for mode %s", ErrInvalidConfiguration, mode)
	}
	var i int
	if rng != nil {
		i = rng.Intn(len(locs))
	} else {
		i = rand.Intn(len(locs))
	}
	return locs[i], nil
}

// Lookup finds the location named name in mode's pool.
func (p Pools) Lookup(mode Mode, name string) (Location, bool) {
	for _, l := range p[mode] {
		if l.Name == name {
			return l, true
		}
	}
	return Location{}, false
}

// PickSecret draws a secret from the default pools.
func PickSecret(mode Mode, rng *rand.Rand) (string, error) {
	l, err := DefaultPools.Pick(mode, rng)
	if err != nil {
		return "", err
	}
	return l.Name, nil
}
