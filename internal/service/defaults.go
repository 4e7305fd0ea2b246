package service

import (
	"github.com/fintrackable/fintrackable-backend/internal/domain"
)

// defaultCategorySeed describes one category created for new owners.
type defaultCategorySeed struct {
	Name     string
	Color    string
	Patterns []string
}

// defaultCategories is the starter set seeded on first use. Patterns are
// case-insensitive counterparty substrings; order doubles as priority.
// "Overig" carries no rules and exists as a manual catch-all.
var defaultCategories = []defaultCategorySeed{
	{
		Name:  "Investeren",
		Color: "#10b981",
		Patterns: []string{
			"Saxo", "Bolero", "DeGiro", "Beleggen", "Aandelen", "Crypto",
			"Investment", "Trading", "Stocks", "Bourse",
		},
	},
	{
		Name:  "Eten & Drinken",
		Color: "#f59e0b",
		Patterns: []string{
			"Delhaize", "Restaurant", "Albert Heijn", "Colruyt", "Carrefour",
			"Aldi", "Lidl", "Jumbo", "Waitrose", "Tesco", "Uber Eats",
			"Deliveroo", "Food", "Supermarket",
		},
	},
	{
		Name:  "Transport",
		Color: "#06b6d4",
		Patterns: []string{
			"NMBS", "De Lijn", "STIB", "MIVB", "Uber", "Taxi", "Shell",
			"Total", "Parking", "Train", "SNCF", "NS", "Bolt", "Gas Station",
			"Petrol",
		},
	},
	{
		Name:  "Inkomen",
		Color: "#3b82f6",
		Patterns: []string{
			"Salaris", "Loon", "Salary", "Income", "Wage", "Dividend",
			"Salaire",
		},
	},
	{
		Name:  "Vrije Tijd",
		Color: "#8b5cf6",
		Patterns: []string{
			"Cinema", "Theater", "Netflix", "Spotify", "Kinepolis", "UGC",
			"Leisure", "Game", "Steam", "Disney+",
		},
	},
	{
		Name:  "Sport & Gezondheid",
		Color: "#ef4444",
		Patterns: []string{
			"Basic-Fit", "Fitness", "Gym", "Apotheek", "Pharmacy", "Health",
			"Hospital", "Doctor", "Apotheke", "Pharmacie",
		},
	},
	{
		Name:  "Wonen",
		Color: "#64748b",
		Patterns: []string{
			"Huur", "Electrabel", "Engie", "Proximus", "Telenet", "Water",
			"Gas", "Elektriciteit", "Rent", "Utility", "Loyer", "Mieten",
			"Electricity",
		},
	},
	{
		Name:  "Kleding",
		Color: "#ec4899",
		Patterns: []string{
			"H&M", "Zara", "C&A", "Primark", "Bershka", "Mango", "Clothing",
			"Fashion", "Zalando", "ASOS",
		},
	},
	{
		Name:  "Reizen",
		Color: "#14b8a6",
		Patterns: []string{
			"Booking", "Airbnb", "Ryanair", "Brussels Airlines", "Hotel",
			"Travel", "Flight", "Voyage", "Reise",
		},
	},
	{
		Name:     "Overig",
		Color:    "#9ca3af",
		Patterns: nil,
	},
}

// DefaultCategories builds the starter categories for a new owner, in
// priority order.
func DefaultCategories() []*domain.Category {
	categories := make([]*domain.Category, 0, len(defaultCategories))
	for i, seed := range defaultCategories {
		rules := make([]domain.Rule, 0, len(seed.Patterns))
		for _, pattern := range seed.Patterns {
			rules = append(rules, domain.Rule{
				Field:   domain.RuleFieldCounterparty,
				Mode:    domain.RuleModeSubstring,
				Pattern: pattern,
			})
		}
		categories = append(categories, &domain.Category{
			Name:     seed.Name,
			Color:    seed.Color,
			Rules:    rules,
			Priority: i + 1,
		})
	}
	return categories
}
