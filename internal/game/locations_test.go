package game

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestPickSecretDrawsFromPool(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, mode := range []Mode{ModeCountry, ModeCity} {
		seen := map[string]bool{}
		for i := 0; i < 200; i++ {
			secret, err := PickSecret(mode, rng)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := DefaultPools.Lookup(mode, secret); !ok {
				t.Fatalf("%q is not in the %s pool", secret, mode)
			}
			seen[secret] = true
		}
		if len(seen) != len(DefaultPools[mode]) {
			t.Fatalf("expected every %s to be drawn eventually, saw %d", mode, len(seen))
		}
	}
}

func TestPickEmptyPool(t *testing.T) {
	pools := Pools{ModeCountry: nil}
	if _, err := pools.Pick(ModeCountry, nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := PickSecret("planet", nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for unknown mode, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" City "); err != nil || m != ModeCity {
		t.Fatalf("expected city, got %q %v", m, err)
	}
	if _, err := ParseMode(""); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestLoadPools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.yaml")
	data := `country:
  - France
  - name: Japan
    aliases: [Nippon]
city:
  - Lima
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pools, err := LoadPools(path)
	if err != nil {
		t.Fatalf("should load pools: %v", err)
	}
	if len(pools[ModeCountry]) != 2 || len(pools[ModeCity]) != 1 {
		t.Fatalf("unexpected pools: %+v", pools)
	}
	jp, ok := pools.Lookup(ModeCountry, "Japan")
	if !ok || len(jp.Aliases) != 1 || jp.Aliases[0] != "Nippon" {
		t.Fatalf("expected Japan with alias, got %+v", jp)
	}
}

func TestLoadPoolsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing-city.yaml": "country: [France]\n",
		"bad-mode.yaml":     "country: [France]\ncity: [Paris]\nplanet: [Mars]\n",
		"blank-name.yaml":   "country: [France]\ncity: [{aliases: [x]}]\n",
	}
	for name, data := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadPools(path); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got %v", name, err)
		}
	}
}
