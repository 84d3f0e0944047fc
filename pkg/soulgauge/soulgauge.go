// Package soulgauge loads soul gauge tables: per difficulty and star level,
// how much the gauge moves on GOOD, OK and BAD for a given note count.
//
// Tables are YAML files:
//
//	tables:
//	  - difficulty: Oni
//	    stars: [8]
//	    rows:
//	      - {maxNotes: 400, good: 20, ok: 10, bad: -40}
//	      - {maxNotes: 2500, good: 5, ok: 2, bad: -10}
//
// Rows are matched by the first maxNotes that is not below the note count.
// Ura and Edit charts use the Oni tables.
package soulgauge

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Rates は1ノーツあたりの魂ゲージの増減
type Rates struct {
	Good int32 `yaml:"good"`
	OK   int32 `yaml:"ok"`
	Bad  int32 `yaml:"bad"`
}

// Row はノーツ数の上限ごとの値
type Row struct {
	MaxNotes int `yaml:"maxNotes"`
	Rates    `yaml:",inline"`
}

// Group は難易度と星の組ごとの表
type Group struct {
	Difficulty string `yaml:"difficulty"`
	Stars      []int  `yaml:"stars,flow"`
	Rows       []Row  `yaml:"rows"`
}

// Table は魂ゲージ表全体
type Table struct {
	Groups []Group `yaml:"tables"`
}

var difficulties = map[string]string{
	"easy":   "Easy",
	"normal": "Normal",
	"hard":   "Hard",
	"oni":    "Oni",
	"ura":    "Oni",
	"edit":   "Oni",
}

func normalizeDifficulty(s string) (string, bool) {
	d, ok := difficulties[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// Load reads a table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read soul gauge table %s", path)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid soul gauge table %s", path)
	}
	return t, nil
}

// Parse decodes and validates a table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, "failed to decode YAML")
	}
	for i := range t.Groups {
		g := &t.Groups[i]
		d, ok := normalizeDifficulty(g.Difficulty)
		if !ok {
			return nil, fmt.Errorf("table %d: unknown difficulty %q", i, g.Difficulty)
		}
		g.Difficulty = d
		if len(g.Stars) == 0 {
			return nil, fmt.Errorf("table %d (%s): no stars", i, d)
		}
		for j := 1; j < len(g.Rows); j++ {
			if g.Rows[j].MaxNotes <= g.Rows[j-1].MaxNotes {
				return nil, fmt.Errorf("table %d (%s): rows must be sorted by maxNotes", i, d)
			}
		}
	}
	return &t, nil
}

// Lookup は魂ゲージの増減を返す。該当する行がなければ false。
func (t *Table) Lookup(notes int, difficulty string, stars int) (Rates, bool) {
	d, ok := normalizeDifficulty(difficulty)
	if !ok {
		return Rates{}, false
	}
	for _, g := range t.Groups {
		if g.Difficulty != d || !containsInt(g.Stars, stars) {
			continue
		}
		for _, row := range g.Rows {
			if notes <= row.MaxNotes {
				return row.Rates, true
			}
		}
		return Rates{}, false
	}
	return Rates{}, false
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
