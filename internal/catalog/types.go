package catalog

// Card represents a single card from the catalog API.
// Cards are read-only projections of external data; the companion never
// mutates them after fetch.
type Card struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Supertype            string        `json:"supertype"`
	Subtypes             []string      `json:"subtypes,omitempty"`
	HP                   string        `json:"hp,omitempty"`
	Types                []string      `json:"types,omitempty"`
	EvolvesFrom          string        `json:"evolvesFrom,omitempty"`
	Attacks              []Attack      `json:"attacks,omitempty"`
	Weaknesses           []TypeValue   `json:"weaknesses,omitempty"`
	Resistances          []TypeValue   `json:"resistances,omitempty"`
	RetreatCost          []string      `json:"retreatCost,omitempty"`
	ConvertedRetreatCost int           `json:"convertedRetreatCost,omitempty"`
	Number               string        `json:"number"`
	Artist               string        `json:"artist,omitempty"`
	Rarity               string        `json:"rarity,omitempty"`
	FlavorText           string        `json:"flavorText,omitempty"`
	Set                  Set           `json:"set"`
	Legalities           Legalities    `json:"legalities"`
	Images               CardImages    `json:"images"`
	TCGPlayer            *TCGPlayer    `json:"tcgplayer,omitempty"`
}

// Attack describes a single attack printed on a card.
type Attack struct {
	Name                string   `json:"name"`
	Cost                []string `json:"cost,omitempty"`
	ConvertedEnergyCost int      `json:"convertedEnergyCost"`
	Damage              string   `json:"damage,omitempty"`
	Text                string   `json:"text,omitempty"`
}

// TypeValue is a weakness or resistance entry (e.g. {Type: "Water", Value: "×2"}).
type TypeValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Legalities reports per-format legality ("Legal", "Banned", "Not Legal" or empty).
type Legalities struct {
	Standard  string `json:"standard,omitempty"`
	Expanded  string `json:"expanded,omitempty"`
	Unlimited string `json:"unlimited,omitempty"`
}

// CardImages holds the two image resolutions the catalog serves.
type CardImages struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

// TCGPlayer is the pricing snapshot attached to a card, when available.
type TCGPlayer struct {
	URL       string           `json:"url"`
	UpdatedAt string           `json:"updatedAt"`
	Prices    map[string]Price `json:"prices,omitempty"`
}

// Price holds the price points for one printing variant (normal, holofoil, ...).
type Price struct {
	Low       *float64 `json:"low,omitempty"`
	Mid       *float64 `json:"mid,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Market    *float64 `json:"market,omitempty"`
	DirectLow *float64 `json:"directLow,omitempty"`
}

// Set represents a card set (expansion) from the catalog API.
type Set struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Series       string     `json:"series"`
	PrintedTotal int        `json:"printedTotal"`
	Total        int        `json:"total"`
	ReleaseDate  string     `json:"releaseDate"` // "2006/10/02" format
	Images       *SetImages `json:"images,omitempty"`
}

// SetImages holds the symbol and logo URLs for a set.
type SetImages struct {
	Symbol string `json:"symbol"`
	Logo   string `json:"logo"`
}

// ResultPage is one page of a paged card search.
// More pages exist iff Page*PageSize < TotalCount.
type ResultPage struct {
	Items      []Card `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalCount int    `json:"totalCount"`
}

// HasMore reports whether pages beyond this one exist.
func (p *ResultPage) HasMore() bool {
	return p.Page*p.PageSize < p.TotalCount
}

// cardListResponse is the wire shape of GET /cards.
type cardListResponse struct {
	Data       []Card `json:"data"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Count      int    `json:"count"`
	TotalCount int    `json:"totalCount"`
}

// cardResponse is the wire shape of GET /cards/{id}.
type cardResponse struct {
	Data Card `json:"data"`
}

// setListResponse is the wire shape of GET /sets.
type setListResponse struct {
	Data []Set `json:"data"`
}
