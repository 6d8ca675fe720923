package rules

// Defensive escalation policy. Mitigation candidates are ordinary rules in
// the defensive category; the helpers here carry the shared gating logic.
//
// Anti-stacking: a new strong mitigation is withheld while two (configurable)
// strong effects are already running, since layering a third wastes it. The
// emergency heal is exempt: at extreme severity the heal fires regardless of
// what else is active.

// MitigationAllowed is the anti-stacking gate for strong mitigation rules.
func (e RuleEnv) MitigationAllowed() bool {
	return e.ActiveStrongMitigations() < e.Cfg.StrongMitigationCap
}

// LastResortShieldTrigger is the elevated-priority path: every blocking and
// incapacitation option is simultaneously unavailable, a hostile activity is
// incoming, and the engaged target will live long enough for the shield to
// matter. Under these conditions the shield is permitted without its
// ordinary predicted-health trigger.
func (e RuleEnv) LastResortShieldTrigger() bool {
	return e.AllInterruptsUnavailable() &&
		e.CastIncoming() &&
		e.TargetTimeToDieSecs() >= e.Cfg.MinTargetLifetimeSecs
}
