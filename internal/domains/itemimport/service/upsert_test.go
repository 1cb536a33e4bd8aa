package service

import (
	"context"
	"errors"
	"testing"

	itemmodel "inventory-backend/internal/domains/item/model"
	"inventory-backend/internal/domains/itemimport/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertEngine_Apply(t *testing.T) {
	store := newMemStore()
	store.seedItem(itemmodel.CatalogItem{Barcode: "OLD", Name: "Old name", Quantity: 9})
	u := NewUpsertEngine(&memItemRepo{store: store})
	tx := openWindow(t, store)
	ctx := context.Background()

	out, err := u.Apply(ctx, tx, 2, &itemmodel.CatalogItem{Barcode: "NEW", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeImported, out.Kind)

	out, err = u.Apply(ctx, tx, 3, &itemmodel.CatalogItem{Barcode: "OLD", Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUpdated, out.Kind)
	assert.False(t, out.RaceResolved)
	assert.Equal(t, "Renamed", store.items["OLD"].Name)
	assert.Equal(t, 0, store.items["OLD"].Quantity)
	assert.Equal(t, int64(1), store.items["OLD"].ID, "id and barcode are preserved")
}

func TestUpsertEngine_InsertFailureIsRowError(t *testing.T) {
	store := newMemStore()
	boom := errors.New("check constraint violated")
	store.beforeInsert = func(*itemmodel.CatalogItem) error { return boom }
	u := NewUpsertEngine(&memItemRepo{store: store})

	_, err := u.Apply(context.Background(), openWindow(t, store), 2, &itemmodel.CatalogItem{Barcode: "X", Name: "x"})
	assert.ErrorIs(t, err, boom)
}
