package search

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned when a FilterSet yields no clauses at all.
// Callers must not issue a catalog request in that case.
var ErrEmptyQuery = errors.New("at least one search criterion is required")

// Compile turns a FilterSet into a catalog query string: space-separated
// field:value clauses ANDed by the search engine. Clause emission order is
// fixed so identical filters always compile to the identical query.
func Compile(f FilterSet) (string, error) {
	var clauses []string

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		clauses = append(clauses, fmt.Sprintf(`name:"*%s*"`, term))
	}
	if f.SelectedType != "" {
		clauses = append(clauses, "types:"+f.SelectedType)
	}
	if f.SelectedSupertype != "" {
		clauses = append(clauses, "supertype:"+f.SelectedSupertype)
	}
	// Subtype and rarity values may contain spaces or punctuation, so they
	// are always quoted.
	if f.SelectedSubtype != "" {
		clauses = append(clauses, fmt.Sprintf(`subtypes:"%s"`, f.SelectedSubtype))
	}
	if f.SelectedRarity != "" {
		clauses = append(clauses, fmt.Sprintf(`rarity:"%s"`, f.SelectedRarity))
	}
	if f.SelectedSetID != "" {
		clauses = append(clauses, "set.id:"+f.SelectedSetID)
	}
	if artist := strings.TrimSpace(f.ArtistName); artist != "" {
		clauses = append(clauses, fmt.Sprintf(`artist:"*%s*"`, artist))
	}
	if c, ok := rangeClause("hp", f.HPRange); ok {
		clauses = append(clauses, c)
	}
	if c, ok := rangeClause("retreatCost", f.RetreatCostRange); ok {
		clauses = append(clauses, c)
	}
	if c, ok := rangeClause("attacks.damage", f.AttackDamageRange); ok {
		clauses = append(clauses, c)
	}
	if f.StandardLegality != "" {
		clauses = append(clauses, "legalities.standard:"+f.StandardLegality)
	}
	if f.ExpandedLegality != "" {
		clauses = append(clauses, "legalities.expanded:"+f.ExpandedLegality)
	}

	if len(clauses) == 0 {
		return "", ErrEmptyQuery
	}

	return strings.Join(clauses, " "), nil
}

// rangeClause emits `field:[min TO max]` with `*` for a missing bound.
// A range with neither bound set produces no clause.
func rangeClause(field string, r Range) (string, bool) {
	if r.IsZero() {
		return "", false
	}
	min, max := r.Min, r.Max
	if min == "" {
		min = "*"
	}
	if max == "" {
		max = "*"
	}
	return fmt.Sprintf("%s:[%s TO %s]", field, min, max), true
}
