package fakeapi

import (
	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
)

func ptr[T any](v T) *T { return &v }

// Seed loads a small demo inventory
func Seed(s *Store) {
	cola := s.CreateItem(domain.ItemFields{
		UPC: "049000050103", InventoryCode: "BEV-001", Name: "Cola", Brand: "Fizz",
		Type: "beverages", Capacity: ptr("355ml"), ItemsPerCase: ptr(24), CasesPerBox: ptr(1),
		ThresholdEnabled: true, HighStockThreshold: ptr(10), RegularStockThreshold: ptr(5), LowStockThreshold: ptr(2),
	})
	water := s.CreateItem(domain.ItemFields{
		UPC: "012000161155", InventoryCode: "BEV-002", Name: "Spring Water", Brand: "Clear",
		Type: "beverages", Capacity: ptr("500ml"), ItemsPerCase: ptr(12), CasesPerBox: ptr(2),
		ThresholdEnabled: true, HighStockThreshold: ptr(20), LowStockThreshold: ptr(4),
	})
	towels := s.CreateItem(domain.ItemFields{
		UPC: "037000862246", InventoryCode: "SUP-001", Name: "Paper Towels", Brand: "Soft",
		Type: "supplies", ItemsPerCase: ptr(6), CasesPerBox: ptr(4),
	})

	for _, c := range []domain.NewCase{
		{ItemID: cola.ID, Quantity: 7},
		{ItemID: cola.ID, Quantity: 4},
		{ItemID: water.ID, Quantity: 3},
		{ItemID: towels.ID, Quantity: 1},
	} {
		_, _ = s.CreateCase(c)
	}
}
