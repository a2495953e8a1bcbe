package store

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func TestCurrentStockNoMovements(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := createProduct(t, database, "Widget")

	stock, err := CurrentStock(ctx, database, p.ID)
	require.NoError(t, err)
	assert.Zero(t, stock)

	stock, err = CurrentStock(ctx, database, 12345)
	require.NoError(t, err)
	assert.Zero(t, stock, "unknown product aggregates to 0")
}

func TestCurrentStockOrderIndependent(t *testing.T) {
	type mv struct {
		kind model.MovementKind
		qty  int64
	}
	// Inbound first so every prefix stays non-negative.
	inbound := []mv{{model.Inbound, 50}, {model.Inbound, 7}, {model.Inbound, 13}}
	outbound := []mv{{model.Outbound, 20}, {model.Outbound, 1}, {model.Outbound, 9}}

	for i := range 5 {
		database := db.NewTestDB(t)
		ctx := context.Background()
		p := createProduct(t, database, "Widget")

		in := append([]mv(nil), inbound...)
		out := append([]mv(nil), outbound...)
		r := rand.New(rand.NewPCG(uint64(i), 1))
		r.Shuffle(len(in), func(a, b int) { in[a], in[b] = in[b], in[a] })
		r.Shuffle(len(out), func(a, b int) { out[a], out[b] = out[b], out[a] })

		for _, m := range append(in, out...) {
			record(t, database, p.ID, m.kind, m.qty, "2024-03-01", "12:00")
		}

		stock, err := CurrentStock(ctx, database, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(70-30), stock)
	}
}

func TestCurrentStockIsNotClamped(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	p := createProduct(t, database, "Widget")

	// Bypass the gate to simulate a corrupted ledger.
	_, err := database.Exec(ctx,
		`INSERT INTO stock_movements (product_id, quantity, movement_type, movement_date, movement_time)
		 VALUES (?, 5, 'Outbound', '2024-01-01', '00:00:00')`, p.ID)
	require.NoError(t, err)

	stock, err := CurrentStock(ctx, database, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), stock)
}

func TestListStockLevels(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	hammer, err := CreateProduct(ctx, database, "Hammer", "Steel claw hammer", "Tools")
	require.NoError(t, err)
	apple, err := CreateProduct(ctx, database, "Apple", "Red", "Food")
	require.NoError(t, err)
	_, err = CreateProduct(ctx, database, "Saw", "", "Tools")
	require.NoError(t, err)

	record(t, database, hammer.ID, model.Inbound, 12, "2024-01-01", "08:00")
	record(t, database, hammer.ID, model.Outbound, 4, "2024-01-02", "08:00")
	record(t, database, apple.ID, model.Inbound, 3, "2024-01-01", "08:00")

	levels, total, err := ListStockLevels(ctx, database, StockLevelFilter{}, Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, levels, 3)
	assert.Equal(t, "Hammer", levels[0].Name)
	assert.Equal(t, int64(8), levels[0].CurrentStock)
	assert.Equal(t, int64(3), levels[1].CurrentStock)
	assert.Equal(t, int64(0), levels[2].CurrentStock)

	levels, total, err = ListStockLevels(ctx, database, StockLevelFilter{ProductType: "Tools"}, Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, levels, 2)

	levels, total, err = ListStockLevels(ctx, database, StockLevelFilter{Search: "CLAW"}, Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, levels, 1)
	assert.Equal(t, hammer.ID, levels[0].ID)

	levels, total, err = ListStockLevels(ctx, database, StockLevelFilter{}, Page{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, levels, 1)
	assert.Equal(t, "Saw", levels[0].Name)
}

func TestGetStockLevel(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := createProduct(t, database, "Widget")
	record(t, database, p.ID, model.Inbound, 9, "2024-01-01", "08:00")

	level, err := GetStockLevel(ctx, database, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", level.Name)
	assert.Equal(t, int64(9), level.CurrentStock)

	_, err = GetStockLevel(ctx, database, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
