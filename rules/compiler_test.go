package rules

import (
	"strings"
	"testing"

	"github.com/nholden/rotor/config"
)

func TestCompileProfileAllModes(t *testing.T) {
	cfg := config.Default()
	for _, mode := range []Mode{ModeOnslaught, ModeReaping, ModeUntrained} {
		t.Run(string(mode), func(t *testing.T) {
			compiled := CompileProfile(ProfileFor(mode), cfg)
			if len(compiled) == 0 {
				t.Fatal("no rules compiled")
			}
			if _, err := NewEngine(compiled); err != nil {
				t.Fatalf("compiled rules failed engine compile: %v", err)
			}
		})
	}
}

func TestUntrainedHasNoCombatRules(t *testing.T) {
	cfg := config.Default()
	for _, r := range CompileProfile(ProfileFor(ModeUntrained), cfg) {
		if r.Category == CategoryCombat {
			t.Errorf("untrained profile compiled combat rule %q", r.Name)
		}
	}
}

func TestUntrainedKeepsSharedFragments(t *testing.T) {
	cfg := config.Default()
	seen := map[string]bool{}
	for _, r := range CompileProfile(ProfileFor(ModeUntrained), cfg) {
		seen[r.Category] = true
	}
	for _, c := range []string{CategoryUtility, CategoryDefensive, CategoryInterrupt} {
		if !seen[c] {
			t.Errorf("untrained profile missing %s rules", c)
		}
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	cfg := config.Default()
	p := ProfileFor(ModeReaping)

	a := CompileProfile(p, cfg)
	b := CompileProfile(p, cfg)
	if len(a) != len(b) {
		t.Fatalf("rule counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Priority != b[i].Priority || a[i].ConditionSrc != b[i].ConditionSrc {
			t.Errorf("rule %d differs between compiles: %q vs %q", i, a[i].Name, b[i].Name)
		}
	}
}

func TestThresholdInterpolation(t *testing.T) {
	cfg := config.Default()
	cfg.PowerCapThreshold = 77

	var src string
	for _, r := range CompileProfile(ProfileFor(ModeOnslaught), cfg) {
		if r.Name == "avoid-power-cap" {
			src = r.ConditionSrc
		}
	}
	if src == "" {
		t.Fatal("avoid-power-cap rule not compiled")
	}
	if !strings.Contains(src, "77") {
		t.Errorf("configured threshold not interpolated: %s", src)
	}
}

func TestTogglesDisableFragments(t *testing.T) {
	cfg := config.Default()
	cfg.DefensivesEnabled = false
	cfg.InterruptsEnabled = false

	for _, r := range CompileProfile(ProfileFor(ModeOnslaught), cfg) {
		if r.Category == CategoryDefensive || r.Category == CategoryInterrupt {
			t.Errorf("disabled fragment still compiled rule %q (%s)", r.Name, r.Category)
		}
	}
}

func TestAggressionLowersSpendFloor(t *testing.T) {
	cfg := config.Default()

	spendSrc := func(aggression float64) string {
		p := ProfileFor(ModeOnslaught)
		p.Aggression = aggression
		for _, r := range CompileProfile(p, cfg) {
			if r.Name == "spend-power" {
				return r.ConditionSrc
			}
		}
		t.Fatal("spend-power rule not compiled")
		return ""
	}

	timid := spendSrc(0)
	eager := spendSrc(1)
	if timid == eager {
		t.Error("aggression had no effect on the spend floor")
	}
	if !strings.Contains(eager, "40") {
		t.Errorf("full aggression should spend at the bare cost: %s", eager)
	}
}

func TestProfileValidateClamps(t *testing.T) {
	p := Profile{Mode: ModeOnslaught, Aggression: 3, DefenseBias: -1, AreaGroupSize: 99}
	p.Validate()
	if p.Aggression != 1 || p.DefenseBias != 0 || p.AreaGroupSize != 6 {
		t.Errorf("Validate did not clamp: %+v", p)
	}
}
