// Package list implements the remote shopping-list synchronizer: a
// user-scoped collection of wanted cards kept consistent through a live
// subscription, with duplicate-add prevention.
package list

import (
	"sort"
	"time"

	"github.com/pokevault/pokevault/internal/catalog"
)

// SetSummary is the slice of set information stored with a list item.
type SetSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Series string `json:"series"`
}

// Item is one entry on a user's shopping list. The ID is assigned by the
// remote store; CardAPIID is unique within a user's list.
type Item struct {
	ID        string                   `json:"id"`
	CardAPIID string                   `json:"cardApiId"`
	Name      string                   `json:"name"`
	ImageURL  string                   `json:"imageUrl,omitempty"`
	Set       SetSummary               `json:"set"`
	Rarity    string                   `json:"rarity,omitempty"`
	Prices    map[string]catalog.Price `json:"tcgplayerPrices,omitempty"` // snapshot at add time
	AddedAt   time.Time                `json:"addedAt"`
	Purchased bool                     `json:"purchased"`
}

// NewItemFromCard builds the list entry for a catalog card, snapshotting
// its current pricing.
func NewItemFromCard(card *catalog.Card, addedAt time.Time) Item {
	item := Item{
		CardAPIID: card.ID,
		Name:      card.Name,
		ImageURL:  card.Images.Small,
		Set: SetSummary{
			ID:     card.Set.ID,
			Name:   card.Set.Name,
			Series: card.Set.Series,
		},
		Rarity:  card.Rarity,
		AddedAt: addedAt,
	}
	if card.TCGPlayer != nil {
		item.Prices = card.TCGPlayer.Prices
	}
	return item
}

// SortItems orders a snapshot for display: unpurchased items first, then
// purchased ones, each group newest first. The input is sorted in place
// and returned.
func SortItems(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Purchased != items[j].Purchased {
			return !items[i].Purchased
		}
		return items[i].AddedAt.After(items[j].AddedAt)
	})
	return items
}
