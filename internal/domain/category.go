package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleField selects which transaction text field a rule inspects.
type RuleField string

const (
	RuleFieldCounterparty RuleField = "counterparty"
	RuleFieldDescription  RuleField = "description"
)

// RuleMode selects how a rule's pattern is compared. All modes are
// case-insensitive.
type RuleMode string

const (
	RuleModeSubstring RuleMode = "substring"
	RuleModeExact     RuleMode = "exact"
	RuleModePrefix    RuleMode = "prefix"
)

// Rule is one match clause in a category's ordered rule list. A rule belongs
// to exactly one category; it is never shared or referenced elsewhere.
type Rule struct {
	Field   RuleField `json:"field"`
	Mode    RuleMode  `json:"mode"`
	Pattern string    `json:"pattern"`
}

// Validate checks field, mode and pattern.
func (r Rule) Validate() error {
	switch r.Field {
	case RuleFieldCounterparty, RuleFieldDescription:
	default:
		return ErrInvalidRule
	}
	switch r.Mode {
	case RuleModeSubstring, RuleModeExact, RuleModePrefix:
	default:
		return ErrInvalidRule
	}
	if strings.TrimSpace(r.Pattern) == "" || len(r.Pattern) > MaxPatternLength {
		return ErrInvalidRule
	}
	return nil
}

// Matches reports whether the rule matches the transaction.
func (r Rule) Matches(t *Transaction) bool {
	var value string
	switch r.Field {
	case RuleFieldCounterparty:
		value = t.Counterparty
	case RuleFieldDescription:
		value = t.Description
	default:
		return false
	}

	value = strings.ToLower(value)
	pattern := strings.ToLower(r.Pattern)

	switch r.Mode {
	case RuleModeSubstring:
		return strings.Contains(value, pattern)
	case RuleModeExact:
		return value == pattern
	case RuleModePrefix:
		return strings.HasPrefix(value, pattern)
	default:
		return false
	}
}

// SamePattern reports whether two rules carry the same clause, ignoring
// pattern case. Used by the learning store to move rather than duplicate.
func (r Rule) SamePattern(other Rule) bool {
	return r.Field == other.Field && r.Mode == other.Mode && strings.EqualFold(r.Pattern, other.Pattern)
}

// Category groups transactions for reporting. The rule list order determines
// match priority within the category; Priority orders categories relative to
// each other (lower wins first).
type Category struct {
	ID        uuid.UUID        `json:"id"`
	OwnerID   uuid.UUID        `json:"ownerId"`
	Name      string           `json:"name"`
	Rules     []Rule           `json:"rules"`
	Color     string           `json:"color"`
	TargetPct *decimal.Decimal `json:"targetPct,omitempty"`
	Priority  int              `json:"priority"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Match returns the first rule in stored order matching the transaction.
func (c *Category) Match(t *Transaction) (Rule, bool) {
	for _, rule := range c.Rules {
		if rule.Matches(t) {
			return rule, true
		}
	}
	return Rule{}, false
}

// CategoryRepository is the storage collaborator for categories and their
// exclusively-owned rule lists.
type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(ownerID uuid.UUID, id uuid.UUID) (*Category, error)
	GetByName(ownerID uuid.UUID, name string) (*Category, error)
	// ListByOwner returns categories ordered by priority, then name.
	ListByOwner(ownerID uuid.UUID) ([]*Category, error)
	Update(category *Category) (*Category, error)
	// UpsertRules replaces the category's full rule list in stored order.
	UpsertRules(ownerID uuid.UUID, categoryID uuid.UUID, rules []Rule) error
	Delete(ownerID uuid.UUID, id uuid.UUID) error
}
