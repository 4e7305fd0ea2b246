package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRuleValidate(t *testing.T) {
	valid := Rule{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: "delhaize"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalid := []Rule{
		{Field: "amount", Mode: RuleModeSubstring, Pattern: "x"},
		{Field: RuleFieldCounterparty, Mode: "regex", Pattern: "x"},
		{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: ""},
		{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: "   "},
		{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: strings.Repeat("x", MaxPatternLength+1)},
	}
	for i, rule := range invalid {
		if err := rule.Validate(); err == nil {
			t.Errorf("Expected error for rule %d", i)
		}
	}
}

func TestRuleMatches_Modes(t *testing.T) {
	tx := &Transaction{
		Counterparty: "Delhaize Gent",
		Description:  "Betaalkaart aankoop",
		Amount:       decimal.RequireFromString("-12.50"),
	}

	cases := []struct {
		rule     Rule
		expected bool
	}{
		{Rule{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: "delhaize"}, true},
		{Rule{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: "DELHAIZE"}, true},
		{Rule{Field: RuleFieldCounterparty, Mode: RuleModeExact, Pattern: "delhaize gent"}, true},
		{Rule{Field: RuleFieldCounterparty, Mode: RuleModeExact, Pattern: "delhaize"}, false},
		{Rule{Field: RuleFieldCounterparty, Mode: RuleModePrefix, Pattern: "delh"}, true},
		{Rule{Field: RuleFieldCounterparty, Mode: RuleModePrefix, Pattern: "gent"}, false},
		{Rule{Field: RuleFieldDescription, Mode: RuleModeSubstring, Pattern: "aankoop"}, true},
		{Rule{Field: RuleFieldDescription, Mode: RuleModeSubstring, Pattern: "delhaize"}, false},
	}
	for i, tc := range cases {
		if got := tc.rule.Matches(tx); got != tc.expected {
			t.Errorf("Case %d: expected %v, got %v", i, tc.expected, got)
		}
	}
}

func TestRuleSamePattern(t *testing.T) {
	a := Rule{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: "Delhaize"}
	b := Rule{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: "delhaize"}
	if !a.SamePattern(b) {
		t.Error("Expected patterns differing only in case to be the same")
	}

	c := Rule{Field: RuleFieldDescription, Mode: RuleModeSubstring, Pattern: "delhaize"}
	if a.SamePattern(c) {
		t.Error("Expected rules on different fields to differ")
	}

	d := Rule{Field: RuleFieldCounterparty, Mode: RuleModeExact, Pattern: "delhaize"}
	if a.SamePattern(d) {
		t.Error("Expected rules with different modes to differ")
	}
}

func TestCategoryMatch_FirstRuleWins(t *testing.T) {
	category := &Category{
		Name: "Eten & Drinken",
		Rules: []Rule{
			{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: "colruyt"},
			{Field: RuleFieldCounterparty, Mode: RuleModeSubstring, Pattern: "delhaize"},
			{Field: RuleFieldDescription, Mode: RuleModeSubstring, Pattern: "delhaize"},
		},
	}

	tx := &Transaction{Counterparty: "Delhaize Gent", Description: "delhaize aankoop"}
	rule, ok := category.Match(tx)
	if !ok {
		t.Fatal("Expected a match")
	}
	if rule.Pattern != "delhaize" || rule.Field != RuleFieldCounterparty {
		t.Errorf("Expected first matching rule in stored order, got %+v", rule)
	}

	noMatch := &Transaction{Counterparty: "NMBS", Description: "treinticket"}
	if _, ok := category.Match(noMatch); ok {
		t.Error("Expected no match")
	}
}

func TestTransactionSign(t *testing.T) {
	income := &Transaction{Amount: decimal.RequireFromString("2500.00")}
	expense := &Transaction{Amount: decimal.RequireFromString("-12.50")}
	zero := &Transaction{Amount: decimal.Zero}

	if !income.IsIncome() || income.IsExpense() {
		t.Error("Expected positive amount to be income")
	}
	if !expense.IsExpense() || expense.IsIncome() {
		t.Error("Expected negative amount to be expense")
	}
	if zero.IsIncome() || zero.IsExpense() {
		t.Error("Expected zero amount to be neither")
	}
}
