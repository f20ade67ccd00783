package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"tiledash/internal/core"
	"tiledash/internal/log"
	"tiledash/internal/store"
)

// LoadSnapshot decodes every collection from kv. A list element that does not
// decode is dropped with a warning; a value that does not decode at all falls
// back to the empty or default collection. Only backend errors are returned.
func LoadSnapshot(ctx context.Context, kv KeyValueStore, logger *log.Logger) (core.Snapshot, error) {
	snap := core.EmptySnapshot()
	decoders := map[string]func([]byte) error{
		store.KeyTiles: func(raw []byte) error {
			return decodeList(ctx, logger, store.KeyTiles, raw, &snap.Tiles)
		},
		store.KeyBudgetCategories: func(raw []byte) error {
			return decodeList(ctx, logger, store.KeyBudgetCategories, raw, &snap.BudgetCategories)
		},
		store.KeyPaymentMethods: func(raw []byte) error {
			return decodeList(ctx, logger, store.KeyPaymentMethods, raw, &snap.PaymentMethods)
		},
		store.KeyTabs: func(raw []byte) error {
			return decodeList(ctx, logger, store.KeyTabs, raw, &snap.Tabs)
		},
		store.KeyHomePageTabs: func(raw []byte) error {
			return decodeList(ctx, logger, store.KeyHomePageTabs, raw, &snap.HomePageTabs)
		},
		store.KeySettings: func(raw []byte) error {
			return json.Unmarshal(raw, &snap.Settings)
		},
	}
	defaults := core.EmptySnapshot()

	for _, key := range store.AllKeys {
		raw, ok, err := kv.Load(ctx, key)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("load %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if err := decoders[key](raw); err != nil {
			logger.WarnContext(ctx, "Unparsable collection, using defaults",
				log.FieldKey, key,
				log.FieldError, err.Error())
			resetCollection(&snap, defaults, key)
		}
	}

	if snap.Settings.DueSoonDays <= 0 {
		snap.Settings.DueSoonDays = defaults.Settings.DueSoonDays
	}
	return snap, nil
}

// decodeList decodes a JSON array into dst one element at a time, so a single
// bad record costs only itself.
func decodeList[T any](ctx context.Context, logger *log.Logger, key string, raw []byte, dst *[]T) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	if items == nil {
		*dst = nil
		return nil
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			logger.WarnContext(ctx, "Dropping unparsable record",
				log.FieldKey, key,
				log.FieldIndex, i,
				log.FieldError, err.Error())
			continue
		}
		out = append(out, v)
	}
	*dst = out
	return nil
}

func resetCollection(snap *core.Snapshot, defaults core.Snapshot, key string) {
	switch key {
	case store.KeyTiles:
		snap.Tiles = defaults.Tiles
	case store.KeyBudgetCategories:
		snap.BudgetCategories = defaults.BudgetCategories
	case store.KeyPaymentMethods:
		snap.PaymentMethods = defaults.PaymentMethods
	case store.KeyTabs:
		snap.Tabs = defaults.Tabs
	case store.KeyHomePageTabs:
		snap.HomePageTabs = defaults.HomePageTabs
	case store.KeySettings:
		snap.Settings = defaults.Settings
	}
}

// SaveKey serialises one collection of snap under key.
func SaveKey(ctx context.Context, kv KeyValueStore, snap core.Snapshot, key string) error {
	var v any
	switch key {
	case store.KeyTiles:
		v = snap.Tiles
	case store.KeyBudgetCategories:
		v = snap.BudgetCategories
	case store.KeyPaymentMethods:
		v = snap.PaymentMethods
	case store.KeyTabs:
		v = snap.Tabs
	case store.KeyHomePageTabs:
		v = snap.HomePageTabs
	case store.KeySettings:
		v = snap.Settings
	default:
		return fmt.Errorf("unknown collection key %q", key)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Save(ctx, key, b)
}

// Persister returns a store change hook that writes the changed collection.
func Persister(kv KeyValueStore, s *store.Store) store.ChangeFunc {
	return func(ctx context.Context, key string) error {
		return SaveKey(ctx, kv, s.Snapshot(), key)
	}
}
