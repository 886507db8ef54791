// Package search implements the advanced-search core: a filter model, a
// compiler from filters to the catalog's query syntax, and a paginator
// that aggregates paged results.
package search

import "strings"

// PokemonTypes are the selectable card energy types.
var PokemonTypes = []string{
	"Grass", "Fire", "Water", "Lightning", "Psychic", "Fighting",
	"Colorless", "Darkness", "Metal", "Dragon", "Fairy",
}

// Supertypes are the three top-level card categories.
var Supertypes = []string{"Pokémon", "Trainer", "Energy"}

// Per-supertype subtype candidate tables. Which table applies is a UI
// concern; the compiler accepts whatever subtype it is given.
var (
	SubtypesPokemon = []string{
		"Basic", "Stage 1", "Stage 2", "V", "VMAX", "VSTAR", "EX", "GX",
		"BREAK", "Restored", "LEGEND", "Radiant",
	}
	SubtypesTrainer = []string{"Item", "Supporter", "Stadium", "Pokémon Tool"}
	SubtypesEnergy  = []string{"Basic", "Special"}
)

// Rarities are the selectable card rarities.
var Rarities = []string{
	"Common", "Uncommon", "Rare", "Rare Holo", "Rare Holo EX", "Rare Holo GX",
	"Rare Holo LV.X", "Rare Holo V", "Rare Holo VMAX", "Rare Prime",
	"Rare Prism Star", "Rare Rainbow", "Rare Secret", "Rare Shining",
	"Rare Shiny GX", "Rare Shiny Holo V", "Rare Ultra", "Amazing Rare",
	"LEGEND", "Promo", "V", "VMAX", "Radiant Rare",
}

// LegalityOptions are the selectable per-format legality values. The empty
// string means "any".
var LegalityOptions = []string{"", "Legal", "Banned", "Not Legal"}

// SubtypesFor returns the subtype candidates for the given supertype, or
// nil when no supertype is selected.
func SubtypesFor(supertype string) []string {
	switch supertype {
	case "Pokémon":
		return SubtypesPokemon
	case "Trainer":
		return SubtypesTrainer
	case "Energy":
		return SubtypesEnergy
	default:
		return nil
	}
}

// Range is a numeric filter range. Bounds are kept as strings because they
// come from free-form user input; an empty bound is open.
type Range struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool {
	return r.Min == "" && r.Max == ""
}

// FilterSet is the structured filter state for an advanced search. A field
// left empty is not included in the compiled query.
type FilterSet struct {
	SearchTerm        string `json:"searchTerm"`
	SelectedType      string `json:"selectedType"`
	SelectedSupertype string `json:"selectedSupertype"`
	SelectedSubtype   string `json:"selectedSubtype"`
	SelectedRarity    string `json:"selectedRarity"`
	SelectedSetID     string `json:"selectedSetId"`
	ArtistName        string `json:"artistName"`
	HPRange           Range  `json:"hpRange"`
	RetreatCostRange  Range  `json:"retreatCostRange"`
	AttackDamageRange Range  `json:"attackDamageRange"`
	StandardLegality  string `json:"standardLegality"`
	ExpandedLegality  string `json:"expandedLegality"`
}

// Reset restores every field to its empty default.
func (f *FilterSet) Reset() {
	*f = FilterSet{}
}

// SanitizeBound strips everything but digits from a range bound. Applied
// when the bound is stored, not at compile time.
func SanitizeBound(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
