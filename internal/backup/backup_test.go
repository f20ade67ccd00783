package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiledash/internal/core"
	"tiledash/internal/store"
)

var exportedAt = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func sampleSnapshot() core.Snapshot {
	snap := core.EmptySnapshot()
	amount := core.NewMoney(999)
	cat := "streaming"
	card := int64(42)
	snap.Tiles = []core.Tile{{
		ID:               1,
		Name:             "Netflix",
		PaidSubscription: true,
		PaymentFrequency: core.Monthly,
		PaymentAmount:    &amount,
		SignupDate:       core.NewDate(2024, 1, 10),
		BudgetType:       core.Subscription,
		BudgetCategory:   &cat,
		CreditCardID:     &card,
		BudgetHistory: map[core.MonthKey]core.BudgetHistoryEntry{
			"2024-04": {
				Budget:   core.NewMoney(999),
				Actual:   core.NewMoney(1049),
				PaidDate: core.NewDate(2024, 4, 10),
			},
		},
	}}
	snap.PaymentMethods = []core.PaymentMethod{{ID: 42, Name: "Visa", MethodType: core.CreditCard, LastFour: "4242"}}
	snap.Settings.StockSymbols = []string{"AAPL"}
	return snap
}

func TestExportDecodeRoundTrip(t *testing.T) {
	snap := sampleSnapshot()

	data, err := Export(snap, exportedAt)
	require.NoError(t, err)

	p, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Version, p.Version)
	assert.True(t, p.ExportedAt.Equal(exportedAt))
	assert.Equal(t, snap.Clone(), p.Snapshot())

	again, err := Export(p.Snapshot(), exportedAt)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestExportUsesHistoricalKeys(t *testing.T) {
	data, err := Export(sampleSnapshot(), exportedAt)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"version", "exportedAt", "tiles", "budgetCategories", "creditCards", "tabs", "homePageTabs", "settings"} {
		assert.Contains(t, doc, key)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"array", `[1,2]`},
		{"string", `"backup"`},
		{"empty", `   `},
		{"future version", `{"version":2,"tiles":[]}`},
		{"broken", `{"tiles":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
			assert.True(t, Invalid(err))
		})
	}

	_, err := Decode([]byte(`{"version":9}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	_, err = Decode([]byte(`[]`))
	assert.ErrorIs(t, err, ErrNotAnObject)
}

func TestDecodeLegacyDocument(t *testing.T) {
	p, err := Decode([]byte(`{"tiles":[{"id":3,"name":"Spotify","unknownField":true}]}`))
	require.NoError(t, err)

	snap := p.Snapshot()
	require.Len(t, snap.Tiles, 1)
	assert.Equal(t, "Spotify", snap.Tiles[0].Name)
	assert.Len(t, snap.BudgetCategories, 20)
	assert.Empty(t, snap.PaymentMethods)
	assert.Equal(t, 5, snap.Settings.DueSoonDays)
}

func TestImportReplacesStore(t *testing.T) {
	ctx := context.Background()
	var keys []string
	s := store.New(core.EmptySnapshot(), store.WithOnChange(func(_ context.Context, key string) error {
		keys = append(keys, key)
		return nil
	}))
	_, err := s.AddTile(ctx, core.Tile{Name: "Old", BudgetType: core.Bill})
	require.NoError(t, err)
	keys = nil

	data, err := Export(sampleSnapshot(), exportedAt)
	require.NoError(t, err)

	_, err = Import(ctx, s, data)
	require.NoError(t, err)

	tiles := s.Tiles()
	require.Len(t, tiles, 1)
	assert.Equal(t, "Netflix", tiles[0].Name)
	assert.ElementsMatch(t, store.AllKeys, keys)
}

func TestImportInvalidLeavesStore(t *testing.T) {
	ctx := context.Background()
	s := store.New(sampleSnapshot())

	_, err := Import(ctx, s, []byte(`{"version":3}`))
	require.Error(t, err)
	assert.Len(t, s.Tiles(), 1)
}
