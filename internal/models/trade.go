package models

// TradeName is a construction discipline. Issues are classified by it and
// it is matched against user specialties.
type TradeName string

const (
	TradeGeneral       TradeName = "GENERAL"
	TradeArchitectural TradeName = "ARCHITECTURAL"
	TradeStructural    TradeName = "STRUCTURAL"
	TradeElectrical    TradeName = "ELECTRICAL"
	TradePlumbing      TradeName = "PLUMBING"
	TradeHVAC          TradeName = "HVAC"
)

var TradeNames = []TradeName{
	TradeGeneral,
	TradeArchitectural,
	TradeStructural,
	TradeElectrical,
	TradePlumbing,
	TradeHVAC,
}

func (t TradeName) Valid() bool {
	for _, name := range TradeNames {
		if t == name {
			return true
		}
	}
	return false
}

// Trade is a trade attached to a project. ProjectID is nil for trades that
// are not scoped to a project.
type Trade struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      TradeName `gorm:"type:varchar(100);not null;uniqueIndex:idx_trade_project" json:"name"`
	ProjectID *uint     `gorm:"uniqueIndex:idx_trade_project" json:"project"`
}
