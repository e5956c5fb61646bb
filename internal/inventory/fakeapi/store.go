package fakeapi

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
)

// Store is the in-memory state of the reference inventory service.
// Items keep insertion order, which is the order GET /items returns.
type Store struct {
	mu        sync.RWMutex
	items     []domain.Item
	packaging []domain.PackagingVersion
	cases     []domain.CaseEntry

	nextItemID      int64
	nextPackagingID int64
	nextCaseID      int64

	now func() time.Time
}

// NewStore creates an empty store. now defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

func (s *Store) today() domain.Date {
	return domain.Today(s.now)
}

func (s *Store) itemIndex(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) caseIndex(id int64) int {
	for i := range s.cases {
		if s.cases[i].ID == id {
			return i
		}
	}
	return -1
}

// ListItems returns all items
func (s *Store) ListItems() []domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Item, len(s.items))
	copy(out, s.items)
	return out
}

// GetItem returns one item
func (s *Store) GetItem(id int64) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.itemIndex(id)
	if i < 0 {
		return domain.Item{}, errors.NotFound("item")
	}
	return s.items[i], nil
}

// CreateItem stores a new item. When both packaging fields are present an
// initial packaging version effective today is appended as well.
func (s *Store) CreateItem(fields domain.ItemFields) domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	item := domain.Item{
		ID:                    s.nextItemID,
		UPC:                   fields.UPC,
		InventoryCode:         fields.InventoryCode,
		Name:                  fields.Name,
		Brand:                 fields.Brand,
		Type:                  fields.Type,
		Capacity:              fields.Capacity,
		ItemsPerCase:          fields.ItemsPerCase,
		CasesPerBox:           fields.CasesPerBox,
		ThresholdEnabled:      fields.ThresholdEnabled,
		HighStockThreshold:    fields.HighStockThreshold,
		RegularStockThreshold: fields.RegularStockThreshold,
		LowStockThreshold:     fields.LowStockThreshold,
	}
	s.items = append(s.items, item)

	if fields.ItemsPerCase != nil && fields.CasesPerBox != nil {
		s.appendPackaging(item.ID, *fields.ItemsPerCase, *fields.CasesPerBox, s.today())
	}
	return item
}

// PatchItem merges the JSON fields present in patch into the item
func (s *Store) PatchItem(id int64, patch map[string]json.RawMessage) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.itemIndex(id)
	if i < 0 {
		return domain.Item{}, errors.NotFound("item")
	}

	current, err := json.Marshal(s.items[i])
	if err != nil {
		return domain.Item{}, errors.Internal("failed to encode item")
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(current, &merged); err != nil {
		return domain.Item{}, errors.Internal("failed to encode item")
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		merged[k] = v
	}

	encoded, err := json.Marshal(merged)
	if err != nil {
		return domain.Item{}, errors.Internal("failed to encode item")
	}
	var updated domain.Item
	if err := json.Unmarshal(encoded, &updated); err != nil {
		return domain.Item{}, errors.BadRequest("invalid item fields: " + err.Error())
	}
	updated.ID = id
	s.items[i] = updated
	return updated, nil
}

// DeleteItem removes the item together with its packaging and cases
func (s *Store) DeleteItem(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.itemIndex(id)
	if i < 0 {
		return errors.NotFound("item")
	}
	s.items = append(s.items[:i], s.items[i+1:]...)

	packaging := s.packaging[:0]
	for _, p := range s.packaging {
		if p.ItemID != id {
			packaging = append(packaging, p)
		}
	}
	s.packaging = packaging

	cases := s.cases[:0]
	for _, c := range s.cases {
		if c.ItemID != id {
			cases = append(cases, c)
		}
	}
	s.cases = cases
	return nil
}

func (s *Store) appendPackaging(itemID int64, itemsPerCase, casesPerBox int, effective domain.Date) domain.PackagingVersion {
	s.nextPackagingID++
	p := domain.PackagingVersion{
		ID:            s.nextPackagingID,
		ItemID:        itemID,
		ItemsPerCase:  itemsPerCase,
		CasesPerBox:   casesPerBox,
		EffectiveDate: effective,
	}
	s.packaging = append(s.packaging, p)
	return p
}

// packagingFor returns an item's versions, newest effective date first
func (s *Store) packagingFor(itemID int64) []domain.PackagingVersion {
	var out []domain.PackagingVersion
	for _, p := range s.packaging {
		if p.ItemID == itemID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].EffectiveDate == out[b].EffectiveDate {
			return out[a].ID > out[b].ID
		}
		return out[a].EffectiveDate.After(out[b].EffectiveDate)
	})
	return out
}

// ListPackaging lists an item's packaging versions, most recent first
func (s *Store) ListPackaging(itemID int64) ([]domain.PackagingVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.itemIndex(itemID) < 0 {
		return nil, errors.NotFound("item")
	}
	out := s.packagingFor(itemID)
	if out == nil {
		out = []domain.PackagingVersion{}
	}
	return out, nil
}

// AddPackaging appends a packaging version; a missing effective date means today
func (s *Store) AddPackaging(itemID int64, p domain.NewPackaging) (domain.PackagingVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.itemIndex(itemID)
	if i < 0 {
		return domain.PackagingVersion{}, errors.NotFound("item")
	}
	effective := s.today()
	if p.EffectiveDate != nil && !p.EffectiveDate.IsZero() {
		effective = *p.EffectiveDate
	}
	version := s.appendPackaging(itemID, p.ItemsPerCase, p.CasesPerBox, effective)

	// The item record mirrors the latest packaging
	latest := s.packagingFor(itemID)[0]
	ipc, cpb := latest.ItemsPerCase, latest.CasesPerBox
	s.items[i].ItemsPerCase = &ipc
	s.items[i].CasesPerBox = &cpb
	return version, nil
}

// DeletePackaging removes one packaging version
func (s *Store) DeletePackaging(itemID, packagingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.packaging {
		if p.ID == packagingID && p.ItemID == itemID {
			s.packaging = append(s.packaging[:i], s.packaging[i+1:]...)
			return nil
		}
	}
	return errors.NotFound("packaging version")
}

// ListCases lists an item's case entries, newest purchase first
func (s *Store) ListCases(itemID int64) []domain.CaseEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.CaseEntry{}
	for _, c := range s.cases {
		if c.ItemID == itemID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		pa, pb := purchaseDate(out[a]), purchaseDate(out[b])
		if pa == pb {
			return out[a].ID > out[b].ID
		}
		return pa.After(pb)
	})
	return out
}

func purchaseDate(c domain.CaseEntry) domain.Date {
	if c.PurchaseDate == nil {
		return domain.Date{}
	}
	return *c.PurchaseDate
}

// CreateCase records a case entry; purchase date defaults to today
func (s *Store) CreateCase(c domain.NewCase) (domain.CaseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.itemIndex(c.ItemID) < 0 {
		return domain.CaseEntry{}, errors.NotFound("item")
	}
	purchased := s.today()
	if c.PurchaseDate != nil && !c.PurchaseDate.IsZero() {
		purchased = *c.PurchaseDate
	}

	s.nextCaseID++
	entry := domain.CaseEntry{
		ID:           s.nextCaseID,
		ItemID:       c.ItemID,
		Quantity:     c.Quantity,
		PurchaseDate: &purchased,
	}
	s.cases = append(s.cases, entry)
	return entry, nil
}

// MarkUsed consumes a case entry. A count below the quantity splits the
// entry: the consumed part becomes a new used entry and the original keeps
// the remainder.
func (s *Store) MarkUsed(caseID int64, usage domain.CaseUsage) (domain.CaseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.caseIndex(caseID)
	if i < 0 {
		return domain.CaseEntry{}, errors.NotFound("case")
	}
	entry := s.cases[i]
	if entry.Used() {
		return domain.CaseEntry{}, errors.BadRequest("case already used")
	}

	count := entry.Quantity
	if usage.CountToUse != nil {
		count = *usage.CountToUse
	}
	if count < 1 || count > entry.Quantity {
		return domain.CaseEntry{}, errors.Validation(map[string]string{
			"count_to_use": "must be between 1 and the case quantity",
		})
	}

	used := usage.UsedDate
	if count == entry.Quantity {
		entry.UsedDate = &used
		entry.CountToUse = &count
		s.cases[i] = entry
		return entry, nil
	}

	s.cases[i].Quantity = entry.Quantity - count

	s.nextCaseID++
	consumed := domain.CaseEntry{
		ID:           s.nextCaseID,
		ItemID:       entry.ItemID,
		Quantity:     count,
		PurchaseDate: entry.PurchaseDate,
		UsedDate:     &used,
		CountToUse:   &count,
	}
	s.cases = append(s.cases, consumed)
	return consumed, nil
}

// DeleteCase removes a case entry
func (s *Store) DeleteCase(caseID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.caseIndex(caseID)
	if i < 0 {
		return errors.NotFound("case")
	}
	s.cases = append(s.cases[:i], s.cases[i+1:]...)
	return nil
}

// Summary groups an item's unused cases by the packaging version in effect at
// purchase: the newest version effective on or before the purchase date,
// else the oldest version. Groups follow packaging order, newest first;
// cases with no packaging at all come last.
func (s *Store) Summary(itemID int64) ([]domain.SummaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.itemIndex(itemID) < 0 {
		return nil, errors.NotFound("item")
	}

	versions := s.packagingFor(itemID)
	totals := make(map[int64]int)
	for _, c := range s.cases {
		if c.ItemID != itemID || c.Used() {
			continue
		}
		totals[versionFor(versions, purchaseDate(c))] += c.Quantity
	}

	out := []domain.SummaryEntry{}
	for _, v := range versions {
		total, ok := totals[v.ID]
		if !ok {
			continue
		}
		ipc, cpb := v.ItemsPerCase, v.CasesPerBox
		out = append(out, domain.SummaryEntry{ItemsPerCase: &ipc, CasesPerBox: &cpb, TotalCases: total})
	}
	if total, ok := totals[0]; ok {
		out = append(out, domain.SummaryEntry{TotalCases: total})
	}
	return out, nil
}

func versionFor(versions []domain.PackagingVersion, purchased domain.Date) int64 {
	if len(versions) == 0 {
		return 0
	}
	for _, v := range versions {
		if !v.EffectiveDate.After(purchased) {
			return v.ID
		}
	}
	return versions[len(versions)-1].ID
}
