package core

// Snapshot is every persisted collection at one point in time.
type Snapshot struct {
	Tiles            []Tile
	BudgetCategories []BudgetCategory
	PaymentMethods   []PaymentMethod
	Tabs             []Tab
	HomePageTabs     []HomePageTab
	Settings         Settings
}

// EmptySnapshot is the first-run state: no tiles, default catalog and settings.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Tiles:            []Tile{},
		BudgetCategories: DefaultBudgetCategories(),
		PaymentMethods:   []PaymentMethod{},
		Tabs:             []Tab{},
		HomePageTabs:     []HomePageTab{},
		Settings:         DefaultSettings(),
	}
}

// Clone returns a deep copy so callers can never alias store state.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Tiles:            make([]Tile, len(s.Tiles)),
		BudgetCategories: make([]BudgetCategory, len(s.BudgetCategories)),
		PaymentMethods:   append([]PaymentMethod{}, s.PaymentMethods...),
		Tabs:             make([]Tab, len(s.Tabs)),
		HomePageTabs:     append([]HomePageTab{}, s.HomePageTabs...),
		Settings:         s.Settings.Clone(),
	}
	for i, t := range s.Tiles {
		out.Tiles[i] = t.Clone()
	}
	for i, c := range s.BudgetCategories {
		c.Subcategories = append([]string{}, c.Subcategories...)
		out.BudgetCategories[i] = c
	}
	for i, tab := range s.Tabs {
		tab.HomePageTabID = cloneInt64(tab.HomePageTabID)
		tab.Subcategories = append([]string(nil), tab.Subcategories...)
		out.Tabs[i] = tab
	}
	return out
}

// Clone returns a deep copy of the tile.
func (t Tile) Clone() Tile {
	out := t
	out.PaymentAmount = cloneMoney(t.PaymentAmount)
	out.BudgetAmount = cloneMoney(t.BudgetAmount)
	out.CreditCardID = cloneInt64(t.CreditCardID)
	out.TabID = cloneInt64(t.TabID)
	out.BudgetCategory = cloneString(t.BudgetCategory)
	out.BudgetSubcategory = cloneString(t.BudgetSubcategory)
	if t.BudgetHistory != nil {
		out.BudgetHistory = make(map[MonthKey]BudgetHistoryEntry, len(t.BudgetHistory))
		for k, v := range t.BudgetHistory {
			out.BudgetHistory[k] = v
		}
	}
	return out
}

func (s Settings) Clone() Settings {
	s.StockSymbols = append([]string{}, s.StockSymbols...)
	return s
}

func cloneMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
