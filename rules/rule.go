package rules

import (
	"github.com/expr-lang/expr/vm"
	"github.com/nholden/rotor/host"
)

// ActionFunc dispatches at most one cast through the host primitive when a
// rule's condition holds. It returns true only when the world accepted the
// attempt; a false return lets the engine fall through to the next rule.
type ActionFunc func(env RuleEnv, sink host.ActionSink) bool

// Rule is the atomic decision unit: a condition → action pair. Rules live in
// one of four fixed categories and are evaluated in descending priority
// within their category.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first within the category
	Category     string      // utility, defensive, interrupt, or combat
	ConditionSrc string      // expr source (preserved for inspection)
	program      *vm.Program // compiled bytecode
	Action       ActionFunc
}

// Fixed evaluation categories, in tick order.
const (
	CategoryUtility   = "utility"
	CategoryDefensive = "defensive"
	CategoryInterrupt = "interrupt"
	CategoryCombat    = "combat"
)

var categoryOrder = []string{CategoryUtility, CategoryDefensive, CategoryInterrupt, CategoryCombat}
