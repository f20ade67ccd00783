package core

// DefaultBudgetCategories returns the catalog seeded on first run and on reset.
// The slice is freshly allocated on every call.
func DefaultBudgetCategories() []BudgetCategory {
	return []BudgetCategory{
		{ID: "housing", Name: "Housing", Icon: "🏠", Subcategories: []string{"Rent", "Mortgage", "HOA", "Property Tax", "Repairs"}},
		{ID: "utilities", Name: "Utilities", Icon: "💡", Subcategories: []string{"Electric", "Gas", "Water", "Trash", "Internet", "Phone"}},
		{ID: "transportation", Name: "Transportation", Icon: "🚗", Subcategories: []string{"Car Payment", "Fuel", "Parking", "Transit", "Maintenance"}},
		{ID: "insurance", Name: "Insurance", Icon: "🛡️", Subcategories: []string{"Health", "Auto", "Home", "Life", "Renters"}},
		{ID: "food", Name: "Food", Icon: "🍽️", Subcategories: []string{"Groceries", "Dining Out", "Delivery"}},
		{ID: "healthcare", Name: "Healthcare", Icon: "⚕️", Subcategories: []string{"Doctor", "Dental", "Vision", "Pharmacy"}},
		{ID: "streaming", Name: "Streaming", Icon: "📺", Subcategories: []string{"Video", "Music", "Podcasts"}},
		{ID: "software", Name: "Software", Icon: "💻", Subcategories: []string{"Productivity", "Cloud Storage", "Developer Tools", "Security"}},
		{ID: "gaming", Name: "Gaming", Icon: "🎮", Subcategories: []string{"Consoles", "Game Passes", "In-Game"}},
		{ID: "news", Name: "News & Media", Icon: "📰", Subcategories: []string{"Newspapers", "Magazines", "Newsletters"}},
		{ID: "fitness", Name: "Fitness", Icon: "🏋️", Subcategories: []string{"Gym", "Classes", "Apps"}},
		{ID: "education", Name: "Education", Icon: "🎓", Subcategories: []string{"Tuition", "Courses", "Books"}},
		{ID: "childcare", Name: "Childcare", Icon: "🧸", Subcategories: []string{"Daycare", "Activities", "School"}},
		{ID: "pets", Name: "Pets", Icon: "🐾", Subcategories: []string{"Food", "Vet", "Grooming"}},
		{ID: "personal", Name: "Personal Care", Icon: "🧴", Subcategories: []string{"Hair", "Skincare", "Clothing"}},
		{ID: "debt", Name: "Debt", Icon: "💳", Subcategories: []string{"Credit Card", "Student Loan", "Personal Loan"}},
		{ID: "savings", Name: "Savings", Icon: "🏦", Subcategories: []string{"Emergency Fund", "Retirement", "Investments"}},
		{ID: "giving", Name: "Giving", Icon: "🎁", Subcategories: []string{"Charity", "Gifts"}},
		{ID: "travel", Name: "Travel", Icon: "✈️", Subcategories: []string{"Flights", "Lodging", "Memberships"}},
		{ID: "miscellaneous", Name: "Miscellaneous", Icon: "📦", Subcategories: []string{"Other"}},
	}
}
