package allowance

import (
	"maps"
	"slices"

	"github.com/de-tools/bacc-research/pkg/models/domain"
)

// Tables holds the read-only lookup data used by the calculator.
type Tables struct {
	ranks     map[domain.Rank]float64
	locations map[domain.Location]float64
	ages      map[domain.AgeBracket]float64
}

var defaultTables = Tables{
	ranks: map[domain.Rank]float64{
		"E-1": 1200, "E-2": 1150, "E-3": 1100, "E-4": 1050, "E-5": 1000,
		"E-6": 950, "E-7": 900, "E-8": 850, "E-9": 800,
		"W-1": 900, "W-2": 850, "W-3": 800, "W-4": 750, "W-5": 700,
		"O-1": 850, "O-2": 800, "O-3": 750, "O-4": 700, "O-5": 650,
		"O-6": 600, "O-7": 500, "O-8": 450, "O-9": 400, "O-10": 300,
	},
	locations: map[domain.Location]float64{
		domain.LocationLow:      0.8,
		domain.LocationStandard: 1.0,
		domain.LocationHigh:     1.5,
	},
	ages: map[domain.AgeBracket]float64{
		domain.AgeInfant:    1.4,
		domain.AgeToddler:   1.3,
		domain.AgePreschool: 1.0,
		domain.AgeSchool:    0.4,
	},
}

// DefaultTables returns the published allowance rates.
func DefaultTables() Tables {
	return defaultTables
}

func (t Tables) BaseAllowance(rank domain.Rank) (float64, bool) {
	v, ok := t.ranks[rank]
	return v, ok
}

func (t Tables) GeoMultiplier(location domain.Location) (float64, bool) {
	v, ok := t.locations[location]
	return v, ok
}

func (t Tables) AgeMultiplier(age domain.AgeBracket) (float64, bool) {
	v, ok := t.ages[age]
	return v, ok
}

// Ranks lists pay grades ordered enlisted, warrant, officer, then by number.
func (t Tables) Ranks() []domain.Rank {
	return slices.SortedFunc(maps.Keys(t.ranks), compareRanks)
}

// Locations lists cost areas from cheapest to most expensive.
func (t Tables) Locations() []domain.Location {
	return slices.SortedFunc(maps.Keys(t.locations), func(a, b domain.Location) int {
		return compareFloat(t.locations[a], t.locations[b])
	})
}

// AgeBrackets lists age brackets from youngest to oldest.
func (t Tables) AgeBrackets() []domain.AgeBracket {
	order := []domain.AgeBracket{domain.AgeInfant, domain.AgeToddler, domain.AgePreschool, domain.AgeSchool}
	out := make([]domain.AgeBracket, 0, len(order))
	for _, a := range order {
		if _, ok := t.ages[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

var gradeOrder = map[byte]int{'E': 0, 'W': 1, 'O': 2}

func compareRanks(a, b domain.Rank) int {
	ga, na := splitRank(a)
	gb, nb := splitRank(b)
	if ga != gb {
		return gradeOrder[ga] - gradeOrder[gb]
	}
	return na - nb
}

func splitRank(r domain.Rank) (byte, int) {
	if len(r) < 3 {
		return 0, 0
	}
	n := 0
	for _, c := range r[2:] {
		n = n*10 + int(c-'0')
	}
	return r[0], n
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
