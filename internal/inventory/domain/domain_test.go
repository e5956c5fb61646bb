package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		high, low  *int
		totalCases int
		want       domain.StockLevel
	}{
		{"disabled ignores thresholds", false, intPtr(1), intPtr(100), 50, domain.StockRegular},
		{"at high threshold", true, intPtr(10), intPtr(2), 10, domain.StockHigh},
		{"above high threshold", true, intPtr(10), intPtr(2), 11, domain.StockHigh},
		{"at low threshold", true, intPtr(10), intPtr(2), 2, domain.StockLow},
		{"below low threshold", true, intPtr(10), intPtr(2), 0, domain.StockLow},
		{"between thresholds", true, intPtr(10), intPtr(2), 5, domain.StockRegular},
		{"high checked before low", true, intPtr(3), intPtr(5), 4, domain.StockHigh},
		{"no thresholds set", true, nil, nil, 0, domain.StockRegular},
		{"only low set", true, nil, intPtr(3), 3, domain.StockLow},
		{"only high set", true, intPtr(3), nil, 0, domain.StockRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Classify(tt.enabled, tt.high, tt.low, tt.totalCases))
		})
	}
}

func TestClassifyItem_BeverageScenario(t *testing.T) {
	item := domain.Item{ID: 1, Type: "beverages", ThresholdEnabled: true, HighStockThreshold: intPtr(10), LowStockThreshold: intPtr(2)}
	summary := []domain.SummaryEntry{{TotalCases: 7}, {TotalCases: 4}}

	total := domain.TotalCases(summary)
	assert.Equal(t, 11, total)
	assert.Equal(t, domain.StockHigh, domain.ClassifyItem(item, total))
}

func TestTotalCases_Empty(t *testing.T) {
	assert.Equal(t, 0, domain.TotalCases(nil))
}

func TestDate_JSON(t *testing.T) {
	var entry domain.CaseEntry
	err := json.Unmarshal([]byte(`{"id":5,"item_id":1,"quantity":3,"purchase_date":"2024-03-01T00:00:00Z","used_date":null}`), &entry)
	require.NoError(t, err)

	require.NotNil(t, entry.PurchaseDate)
	assert.Equal(t, "2024-03-01", entry.PurchaseDate.String())
	assert.Nil(t, entry.UsedDate)
	assert.False(t, entry.Used())

	out, err := json.Marshal(domain.CaseUsage{UsedDate: domain.Date{Year: 2026, Month: time.October, Day: 14}, CountToUse: intPtr(2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"used_date":"2026-10-14","count_to_use":2}`, string(out))
}

func TestParseDate(t *testing.T) {
	d, err := domain.ParseDate(" 2025-12-31 ")
	require.NoError(t, err)
	assert.Equal(t, domain.Date{Year: 2025, Month: time.December, Day: 31}, d)

	_, err = domain.ParseDate("31/12/2025")
	assert.Error(t, err)

	a := domain.Date{Year: 2025, Month: time.January, Day: 1}
	b := domain.Date{Year: 2025, Month: time.January, Day: 2}
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
}

func TestToday(t *testing.T) {
	fixed := func() time.Time { return time.Date(2026, time.October, 14, 23, 30, 0, 0, time.UTC) }
	assert.Equal(t, "2026-10-14", domain.Today(fixed).String())
}
