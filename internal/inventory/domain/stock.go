package domain

// StockLevel classifies an item's on-hand stock against its thresholds
type StockLevel string

const (
	StockHigh    StockLevel = "high"
	StockRegular StockLevel = "regular"
	StockLow     StockLevel = "low"
)

// Classify derives the stock level. Disabled thresholds always yield regular;
// the high threshold is checked before the low one.
func Classify(thresholdEnabled bool, high, low *int, totalCases int) StockLevel {
	if !thresholdEnabled {
		return StockRegular
	}
	if high != nil && totalCases >= *high {
		return StockHigh
	}
	if low != nil && totalCases <= *low {
		return StockLow
	}
	return StockRegular
}

// ClassifyItem classifies item at totalCases
func ClassifyItem(item Item, totalCases int) StockLevel {
	return Classify(item.ThresholdEnabled, item.HighStockThreshold, item.LowStockThreshold, totalCases)
}
