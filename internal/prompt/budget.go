package prompt

import "regulaite/internal/router"

// Output token budgets per mode. Tuning parameters, but the ordering is
// a hard invariant: research >= long >= short.
const (
	budgetShort    = 900
	budgetLong     = 2600
	budgetResearch = 3600
)

// Budgets carries per-mode output token budgets, overridable from
// configuration.
type Budgets struct {
	Short    int
	Long     int
	Research int
}

// DefaultBudgets returns the built-in budget table.
func DefaultBudgets() Budgets {
	return Budgets{Short: budgetShort, Long: budgetLong, Research: budgetResearch}
}

// Normalize fills zero entries from the defaults and restores
// monotonicity by raising any budget below its shorter neighbor.
func (b Budgets) Normalize() Budgets {
	d := DefaultBudgets()
	if b.Short <= 0 {
		b.Short = d.Short
	}
	if b.Long <= 0 {
		b.Long = d.Long
	}
	if b.Research <= 0 {
		b.Research = d.Research
	}
	if b.Long < b.Short {
		b.Long = b.Short
	}
	if b.Research < b.Long {
		b.Research = b.Long
	}
	return b
}

// For returns the output budget for a concrete mode. ModeAuto must be
// resolved before budgeting; an unresolved value gets the long budget.
func (b Budgets) For(mode router.Mode) int {
	switch mode {
	case router.ModeShort:
		return b.Short
	case router.ModeResearch:
		return b.Research
	default:
		return b.Long
	}
}
