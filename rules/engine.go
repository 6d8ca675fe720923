package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nholden/rotor/host"
)

// Engine evaluates compiled rules against one tick snapshot. The four
// categories run in fixed order; rules within a category run in descending
// priority; the first successfully dispatched action consumes the tick.
type Engine struct {
	mu   sync.RWMutex
	sets []ruleSet

	Memory map[string]any
	memMu  sync.Mutex // guards all reads/writes to Memory
}

type ruleSet struct {
	category string
	rules    []*Rule
}

// NewEngine compiles all rule conditions into expr bytecode and buckets them
// into the fixed category order.
func NewEngine(all []*Rule) (*Engine, error) {
	sets, err := compileRuleSets(all)
	if err != nil {
		return nil, err
	}
	return &Engine{
		sets:   sets,
		Memory: make(map[string]any),
	}, nil
}

// Evaluate runs the tick. It returns true when a rule's action was dispatched
// and accepted (tick consumed). A rejected dispatch is non-fatal: the rule is
// skipped and evaluation continues, because availability predicates are
// necessary but not sufficient at dispatch time.
func (e *Engine) Evaluate(env RuleEnv, sink host.ActionSink) bool {
	e.mu.RLock()
	sets := e.sets
	e.mu.RUnlock()

	e.memMu.Lock()
	defer e.memMu.Unlock()
	env.Memory = e.Memory

	for _, set := range sets {
		for _, r := range set.rules {
			result, err := vm.Run(r.program, env)
			if err != nil {
				slog.Warn("rule condition error", "rule", r.Name, "error", err)
				continue
			}
			match, ok := result.(bool)
			if !ok || !match {
				continue
			}

			if r.Action(env, sink) {
				slog.Debug("rule fired", "rule", r.Name, "category", r.Category, "priority", r.Priority)
				return true
			}
			slog.Debug("rule dispatch rejected", "rule", r.Name, "category", r.Category)
		}
	}

	logIdleDiagnostics(env)
	return false
}

// Swap atomically replaces the rule set (called by the mode router when the
// detected capability changes). Compiles first; if compilation fails the old
// rules remain active.
func (e *Engine) Swap(newRules []*Rule) error {
	sets, err := compileRuleSets(newRules)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(newRules))
	for _, r := range newRules {
		names = append(names, r.Name)
	}
	e.mu.Lock()
	e.sets = sets
	e.mu.Unlock()
	slog.Info("rule set swapped", "count", len(newRules), "rules", names)
	return nil
}

// LockMemory acquires the memory mutex. Callers must pair with UnlockMemory.
// Used by the orchestrator to record window transitions between evaluations.
func (e *Engine) LockMemory()   { e.memMu.Lock() }
func (e *Engine) UnlockMemory() { e.memMu.Unlock() }

// BumpWindow advances the buffer-window sequence number. Once-per-window
// actions compare their recorded sequence against it.
func (e *Engine) BumpWindow() {
	e.memMu.Lock()
	e.Memory[memWindowSeq] = windowSeq(e.Memory) + 1
	e.memMu.Unlock()
}

// Rules returns the rule names per category, in evaluation order. For
// inspection and tests.
func (e *Engine) Rules() map[string][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string][]string, len(e.sets))
	for _, set := range e.sets {
		names := make([]string, 0, len(set.rules))
		for _, r := range set.rules {
			names = append(names, r.Name)
		}
		out[set.category] = names
	}
	return out
}

func compileRuleSets(all []*Rule) ([]ruleSet, error) {
	byCategory := make(map[string][]*Rule)
	for _, r := range all {
		valid := false
		for _, c := range categoryOrder {
			if r.Category == c {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("rule %q: unknown category %q", r.Name, r.Category)
		}
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	sets := make([]ruleSet, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		rs := byCategory[c]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Priority > rs[j].Priority })
		sets = append(sets, ruleSet{category: c, rules: rs})
	}
	return sets, nil
}

// logIdleDiagnostics helps debug "why isn't the agent doing anything?" by
// dumping pool and guard state when zero rules fire. Throttled via Memory to
// avoid log spam.
const idleDiagEveryTicks = 100

func logIdleDiagnostics(env RuleEnv) {
	last, _ := env.Memory["lastIdleDiagTick"].(int)
	if env.Snap.Tick-last < idleDiagEveryTicks {
		return
	}
	env.Memory["lastIdleDiagTick"] = env.Snap.Tick

	slog.Warn("idle diagnostics",
		"tick", env.Snap.Tick,
		"slots", env.Slots.Current,
		"power", env.Snap.Power.Amount,
		"bufferStacks", env.Snap.Buffer.Stacks,
		"bufferRemaining", env.Snap.Buffer.Remaining,
		"guard", env.Guard.String(),
		"spendBlocked", env.Blocked,
		"hostiles", len(env.Snap.Hostiles),
	)
}
