// Package backup encodes and restores the whole dashboard as one JSON document.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tiledash/internal/core"
)

// Version is the payload version written by Export.
const Version = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	ErrNotAnObject        = errors.New("backup must be a JSON object")
	ErrMalformed          = errors.New("malformed backup")
)

// Payload is the backup document. Collections missing from an imported
// document restore as empty, except the category catalog which restores
// to the defaults.
type Payload struct {
	Version          int                   `json:"version"`
	ExportedAt       time.Time             `json:"exportedAt"`
	Tiles            []core.Tile           `json:"tiles"`
	BudgetCategories []core.BudgetCategory `json:"budgetCategories"`
	CreditCards      []core.PaymentMethod  `json:"creditCards"`
	Tabs             []core.Tab            `json:"tabs"`
	HomePageTabs     []core.HomePageTab    `json:"homePageTabs"`
	Settings         core.Settings         `json:"settings"`
}

// FromSnapshot builds a payload stamped with now.
func FromSnapshot(snap core.Snapshot, now time.Time) Payload {
	snap = snap.Clone()
	return Payload{
		Version:          Version,
		ExportedAt:       now.UTC(),
		Tiles:            snap.Tiles,
		BudgetCategories: snap.BudgetCategories,
		CreditCards:      snap.PaymentMethods,
		Tabs:             snap.Tabs,
		HomePageTabs:     snap.HomePageTabs,
		Settings:         snap.Settings,
	}
}

// Snapshot converts the payload back into store collections.
func (p Payload) Snapshot() core.Snapshot {
	snap := core.Snapshot{
		Tiles:            p.Tiles,
		BudgetCategories: p.BudgetCategories,
		PaymentMethods:   p.CreditCards,
		Tabs:             p.Tabs,
		HomePageTabs:     p.HomePageTabs,
		Settings:         p.Settings,
	}
	if snap.Tiles == nil {
		snap.Tiles = []core.Tile{}
	}
	if snap.BudgetCategories == nil {
		snap.BudgetCategories = core.DefaultBudgetCategories()
	}
	if snap.PaymentMethods == nil {
		snap.PaymentMethods = []core.PaymentMethod{}
	}
	if snap.Tabs == nil {
		snap.Tabs = []core.Tab{}
	}
	if snap.HomePageTabs == nil {
		snap.HomePageTabs = []core.HomePageTab{}
	}
	if snap.Settings.DueSoonDays <= 0 {
		snap.Settings.DueSoonDays = core.DefaultSettings().DueSoonDays
	}
	if snap.Settings.Currency == "" {
		snap.Settings.Currency = core.DefaultSettings().Currency
	}
	return snap.Clone()
}

// Export encodes snap as an indented backup document.
func Export(snap core.Snapshot, now time.Time) ([]byte, error) {
	b, err := json.MarshalIndent(FromSnapshot(snap, now), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return b, nil
}

// Decode parses a backup document. A version of 0 is read as a legacy
// document without the field.
func Decode(data []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Payload{}, ErrNotAnObject
	}
	var p Payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.Version == 0 {
		p.Version = Version
	}
	if p.Version != Version {
		return Payload{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, p.Version)
	}
	return p, nil
}

// Replacer is the store operation Import needs.
type Replacer interface {
	Replace(ctx context.Context, snap core.Snapshot) error
}

// Invalid reports whether err came from decoding rather than restoring.
func Invalid(err error) bool {
	return errors.Is(err, ErrMalformed) || errors.Is(err, ErrNotAnObject) || errors.Is(err, ErrUnsupportedVersion)
}

// Import decodes data and overwrites every collection in dst.
func Import(ctx context.Context, dst Replacer, data []byte) (Payload, error) {
	p, err := Decode(data)
	if err != nil {
		return Payload{}, err
	}
	if err := dst.Replace(ctx, p.Snapshot()); err != nil {
		return Payload{}, fmt.Errorf("restore backup: %w", err)
	}
	return p, nil
}
