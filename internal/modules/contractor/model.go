// README: Contractor read model and trade catalog.
package contractor

import (
	"tradedispatch/internal/types"
)

// Trade is one of the fixed service categories a contractor can work in.
// A job is only matched to contractors of the exact same trade.
type Trade string

const (
	TradePlumbing   Trade = "plumbing"
	TradeElectrical Trade = "electrical"
	TradeHVAC       Trade = "hvac"
	TradeCarpentry  Trade = "carpentry"
	TradePainting   Trade = "painting"
	TradeRoofing    Trade = "roofing"
)

var allTrades = map[Trade]bool{
	TradePlumbing:   true,
	TradeElectrical: true,
	TradeHVAC:       true,
	TradeCarpentry:  true,
	TradePainting:   true,
	TradeRoofing:    true,
}

func ValidTrade(t Trade) bool {
	return allTrades[t]
}

// Contractor is a read-only snapshot of a contractor record. The recommendation
// core never mutates it; creation and updates happen in the administrative flow.
type Contractor struct {
	ID       types.ID
	Name     string
	Location types.Point
	Trade    Trade
	// Working-hours window; WorkStart must be strictly before WorkEnd.
	WorkStart types.TimeOfDay
	WorkEnd   types.TimeOfDay
	// Rating is the aggregate review rating in [0,5]; nil means no reviews yet.
	Rating      *float64
	ReviewCount int
	Active      bool
}
