package service

import (
	"strings"

	"github.com/fintrackable/fintrackable-backend/internal/domain"
	"github.com/google/uuid"
)

// Classification is the outcome of running one transaction through a ruleset.
// A nil CategoryID means no rule matched and the income fallback did not
// apply; the transaction stays unclassified.
type Classification struct {
	CategoryID  *uuid.UUID
	MatchedRule *domain.Rule
}

// Ruleset is an immutable snapshot of one owner's categories, taken at the
// start of a categorization pass so every row in a batch sees the same rules.
type Ruleset struct {
	categories []*domain.Category
	income     *domain.Category
}

// NewRuleset builds a ruleset from the owner's categories in evaluation
// order (priority, then name, as returned by the repository). The income
// category name comes from the owner's preferences and binds the sign-based
// fallback; it may name a category that does not exist, in which case the
// fallback is simply inert.
func NewRuleset(categories []*domain.Category, incomeCategoryName string) *Ruleset {
	rs := &Ruleset{categories: categories}
	for _, c := range categories {
		if strings.EqualFold(c.Name, incomeCategoryName) {
			rs.income = c
			break
		}
	}
	return rs
}

// Classify assigns a category to the transaction. Categories are evaluated
// in priority order and the first matching rule wins; within a category the
// stored rule order decides. Positive amounts with no rule match fall back
// to the income category.
func (rs *Ruleset) Classify(t *domain.Transaction) Classification {
	for _, category := range rs.categories {
		if rule, ok := category.Match(t); ok {
			id := category.ID
			matched := rule
			return Classification{CategoryID: &id, MatchedRule: &matched}
		}
	}

	if rs.income != nil && t.IsIncome() {
		id := rs.income.ID
		return Classification{CategoryID: &id}
	}

	return Classification{}
}

// Size returns the number of categories in the snapshot.
func (rs *Ruleset) Size() int {
	return len(rs.categories)
}
