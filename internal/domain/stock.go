package domain

// Sector classifies a stock into one of the fixed game sectors. Economic
// events target a whole sector at a time.
type Sector string

const (
	SectorTechnology   Sector = "Technology"
	SectorHealthcare   Sector = "Healthcare"
	SectorFinance      Sector = "Finance"
	SectorEnergy       Sector = "Energy"
	SectorConsumerGood Sector = "Consumer Goods"
	SectorUtilities    Sector = "Utilities"
)

// Sectors returns the fixed sector enumeration in stable order.
func Sectors() []Sector {
	return []Sector{
		SectorTechnology,
		SectorHealthcare,
		SectorFinance,
		SectorEnergy,
		SectorConsumerGood,
		SectorUtilities,
	}
}

// ValidSector reports whether s is one of the fixed game sectors.
func ValidSector(s Sector) bool {
	switch s {
	case SectorTechnology, SectorHealthcare, SectorFinance,
		SectorEnergy, SectorConsumerGood, SectorUtilities:
		return true
	}
	return false
}

// Stock is one fictional listed company in a game catalog.
//
// PriceChange is a percentage derived from Price and PreviousDayPrice;
// at creation PreviousDayPrice stays within ±10% of Price.
type Stock struct {
	Ticker           string  `json:"ticker"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	PreviousDayPrice float64 `json:"previousDayPrice"`
	PriceChange      float64 `json:"priceChange"`
	Volatility       float64 `json:"volatility"`
	Sector           Sector  `json:"sector,omitempty"`
	Tidbit           string  `json:"tidbit,omitempty"`
}

// SimulationTick is one stock's state on one simulated day. Ticks for the
// same ticker chain: previousDayPrice of day N+1 equals price of day N.
type SimulationTick struct {
	Ticker           string  `json:"ticker"`
	Day              int     `json:"day"`
	Price            float64 `json:"price"`
	PreviousDayPrice float64 `json:"previousDayPrice"`
	PriceChange      float64 `json:"priceChange"`
	Volatility       float64 `json:"volatility"`
	Headline         string  `json:"headline"`
	Description      string  `json:"description"`
}

// PriceFloor is the hard lower bound on any simulated price.
const PriceFloor = 0.1
