package workflow_test

import (
	"context"
	"testing"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/workflow"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionLabel(t *testing.T) {
	assert.Equal(t, "INV-1 - Cola", workflow.OptionLabel(domain.Item{ID: 1, InventoryCode: "INV-1", UPC: "012345678905", Name: "Cola"}))
	assert.Equal(t, "012345678905 - Cola", workflow.OptionLabel(domain.Item{ID: 1, UPC: "012345678905", Name: "Cola"}))
	assert.Equal(t, "ID:9 - Cola", workflow.OptionLabel(domain.Item{ID: 9, Name: "Cola"}))
}

func TestCaseForm_Validate(t *testing.T) {
	tests := []struct {
		name  string
		form  workflow.CaseForm
		field string
	}{
		{"no item", workflow.CaseForm{Quantity: "2"}, "item_id"},
		{"bad item", workflow.CaseForm{ItemID: "x", Quantity: "2"}, "item_id"},
		{"no quantity", workflow.CaseForm{ItemID: "1"}, "quantity"},
		{"zero quantity", workflow.CaseForm{ItemID: "1", Quantity: "0"}, "quantity"},
		{"text quantity", workflow.CaseForm{ItemID: "1", Quantity: "three"}, "quantity"},
		{"bad date", workflow.CaseForm{ItemID: "1", Quantity: "3", PurchaseDate: "14/10/2026"}, "purchase_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.Validate()
			var verrs errors.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, []string{tt.field}, verrs.Fields())
		})
	}

	c, err := workflow.CaseForm{ItemID: "4", Quantity: " 3 ", PurchaseDate: "2026-10-01"}.Validate()
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.ItemID)
	assert.Equal(t, 3, c.Quantity)
	assert.Equal(t, "2026-10-01", c.PurchaseDate.String())

	c, err = workflow.CaseForm{ItemID: "4", Quantity: "1"}.Validate()
	require.NoError(t, err)
	assert.Nil(t, c.PurchaseDate)
}

func TestCaseDialog_OpenForLoadsSelector(t *testing.T) {
	svc := newRecorder()
	svc.items = []domain.Item{
		{ID: 1, InventoryCode: "INV-1", Name: "Cola"},
		{ID: 2, UPC: "96385074", Name: "Water"},
	}
	d := workflow.NewCaseDialog(svc, &reloads{}, logger.Nop())

	d.OpenFor(context.Background(), 2)
	st := d.State()
	assert.True(t, st.Open)
	assert.Equal(t, int64(2), *st.ItemID)
	assert.Equal(t, "2", st.Form.ItemID, "item preselected")
	assert.Equal(t, []workflow.ItemOption{{ID: 1, Label: "INV-1 - Cola"}, {ID: 2, Label: "96385074 - Water"}}, st.Options)
	assert.NoError(t, st.OptionsErr)

	// reopening resets the form
	d.SetForm(workflow.CaseForm{ItemID: "1", Quantity: "9"})
	d.OpenFor(context.Background(), 1)
	assert.Equal(t, workflow.CaseForm{ItemID: "1"}, d.State().Form)
}

func TestCaseDialog_OptionFailureStillOpens(t *testing.T) {
	svc := newRecorder()
	svc.itemsErr = errServer
	d := workflow.NewCaseDialog(svc, &reloads{}, logger.Nop())

	d.OpenFor(context.Background(), 2)
	st := d.State()
	assert.True(t, st.Open)
	assert.Empty(t, st.Options)
	assert.Error(t, st.OptionsErr)
}

func TestCaseDialog_Submit(t *testing.T) {
	svc := newRecorder()
	r := &reloads{}
	d := workflow.NewCaseDialog(svc, r, logger.Nop())

	d.OpenFor(context.Background(), 2)
	d.SetForm(workflow.CaseForm{ItemID: "2", Quantity: "-1"})
	err := d.Submit(context.Background())
	var verrs errors.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"quantity"}, verrs.Fields())
	assert.Equal(t, []string{"ListItems"}, svc.Calls())
	assert.True(t, d.State().Open)

	d.SetForm(workflow.CaseForm{ItemID: "2", Quantity: "4"})
	require.NoError(t, d.Submit(context.Background()))
	require.Len(t, svc.newCases, 1)
	assert.Equal(t, domain.NewCase{ItemID: 2, Quantity: 4}, svc.newCases[0])
	assert.False(t, d.State().Open)
	assert.Nil(t, d.State().ItemID)
	assert.Equal(t, 1, r.count())
}

func TestCaseDialog_RemoteErrorKeepsOpen(t *testing.T) {
	svc := newRecorder()
	svc.failWith = errServer
	r := &reloads{}
	d := workflow.NewCaseDialog(svc, r, logger.Nop())

	d.OpenFor(context.Background(), 2)
	d.SetForm(workflow.CaseForm{ItemID: "2", Quantity: "4"})
	assert.True(t, errors.Is(d.Submit(context.Background()), errors.ErrRemote))
	assert.True(t, d.State().Open)
	assert.Equal(t, 0, r.count())
}
