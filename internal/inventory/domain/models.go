package domain

// Item is a tracked product record.
// Threshold pointers are nil when the threshold is not set.
type Item struct {
	ID                    int64   `json:"id"`
	UPC                   string  `json:"upc"`
	InventoryCode         string  `json:"inventory_code"`
	Name                  string  `json:"name"`
	Brand                 string  `json:"brand"`
	Type                  string  `json:"type"`
	Capacity              *string `json:"capacity"`
	ItemsPerCase          *int    `json:"items_per_case"`
	CasesPerBox           *int    `json:"cases_per_box"`
	ThresholdEnabled      bool    `json:"threshold_enabled"`
	HighStockThreshold    *int    `json:"high_stock_threshold"`
	RegularStockThreshold *int    `json:"regular_stock_threshold"`
	LowStockThreshold     *int    `json:"low_stock_threshold"`
}

// ItemFields is the mutable part of an item as sent on create and update.
// Packaging fields are only sent when creating.
type ItemFields struct {
	UPC                   string  `json:"upc"`
	InventoryCode         string  `json:"inventory_code"`
	Name                  string  `json:"name"`
	Brand                 string  `json:"brand"`
	Type                  string  `json:"type"`
	Capacity              *string `json:"capacity"`
	ItemsPerCase          *int    `json:"items_per_case,omitempty"`
	CasesPerBox           *int    `json:"cases_per_box,omitempty"`
	ThresholdEnabled      bool    `json:"threshold_enabled"`
	HighStockThreshold    *int    `json:"high_stock_threshold"`
	RegularStockThreshold *int    `json:"regular_stock_threshold"`
	LowStockThreshold     *int    `json:"low_stock_threshold"`
}

// PackagingVersion is one dated packaging record of an item. History is append-only.
type PackagingVersion struct {
	ID            int64 `json:"id"`
	ItemID        int64 `json:"item_id"`
	ItemsPerCase  int   `json:"items_per_case"`
	CasesPerBox   int   `json:"cases_per_box"`
	EffectiveDate Date  `json:"effective_date"`
}

// NewPackaging is the payload appending a packaging version
type NewPackaging struct {
	ItemsPerCase  int   `json:"items_per_case"`
	CasesPerBox   int   `json:"cases_per_box"`
	EffectiveDate *Date `json:"effective_date,omitempty"`
}

// CaseEntry is one purchased batch of an item
type CaseEntry struct {
	ID           int64 `json:"id"`
	ItemID       int64 `json:"item_id"`
	Quantity     int   `json:"quantity"`
	PurchaseDate *Date `json:"purchase_date"`
	UsedDate     *Date `json:"used_date"`
	CountToUse   *int  `json:"count_to_use,omitempty"`
}

// Used reports whether the entry has been consumed
func (c CaseEntry) Used() bool {
	return c.UsedDate != nil && !c.UsedDate.IsZero()
}

// NewCase is the payload creating a case entry
type NewCase struct {
	ItemID       int64 `json:"item_id"`
	Quantity     int   `json:"quantity"`
	PurchaseDate *Date `json:"purchase_date,omitempty"`
}

// CaseUsage is the payload marking a case entry used
type CaseUsage struct {
	UsedDate   Date `json:"used_date"`
	CountToUse *int `json:"count_to_use,omitempty"`
}

// SummaryEntry is one packaging grouping of an item's on-hand stock
type SummaryEntry struct {
	ItemsPerCase *int `json:"items_per_case,omitempty"`
	CasesPerBox  *int `json:"cases_per_box,omitempty"`
	TotalCases   int  `json:"total_cases"`
}

// TotalCases sums total_cases across the summary entries
func TotalCases(summary []SummaryEntry) int {
	total := 0
	for _, s := range summary {
		total += s.TotalCases
	}
	return total
}
