package rules

// Ability IDs of the default catalogue. The host owns the descriptors; the
// core addresses them by ID only.
const (
	AbilityBolster   = "bolster"   // buffer refresh, costs refresh_cost slots
	AbilityReap      = "reap"      // single-target slot strike, generates power
	AbilityScythe    = "scythe"    // area slot strike (reaping kit)
	AbilitySurge     = "surge"     // power spender; doubles as emergency self-heal
	AbilityBlight    = "blight"    // damage-over-time applicator, one slot
	AbilityQuell     = "quell"     // direct cast block
	AbilityShackle   = "shackle"   // incapacitation
	AbilityTempest   = "tempest"   // area cast block, once per buffer window
	AbilityGrasp     = "grasp"     // displacement pull, multi-charge
	AbilityIronhide  = "ironhide"  // strong mitigation
	AbilityStoneform = "stoneform" // strong mitigation
	AbilityCarapace  = "carapace"  // shield mitigation with a last-resort path
	AbilityFrenzy    = "frenzy"    // onslaught signature burst
	AbilityScourge   = "scourge"   // reaping signature strike
)

// Status IDs mirrored from the host.
const (
	StatusWard      = "ward" // the critical protective buffer
	StatusBlight    = "blight"
	StatusIronhide  = "ironhide"
	StatusStoneform = "stoneform"
	StatusCarapace  = "carapace"
)

// strongMitigations are the statuses counted by the anti-stacking check.
// Carapace is a shield, not a strong mitigation, and does not count.
var strongMitigations = []string{StatusIronhide, StatusStoneform}

// sensitiveAbilities carry the minimum inter-use interval: a double fire
// wastes a cooldown, a charge, or a heal. Slot fillers are excluded; the
// pool itself already bounds their rate.
var sensitiveAbilities = map[string]bool{
	AbilityBolster:   true,
	AbilitySurge:     true,
	AbilityQuell:     true,
	AbilityShackle:   true,
	AbilityTempest:   true,
	AbilityGrasp:     true,
	AbilityIronhide:  true,
	AbilityStoneform: true,
	AbilityCarapace:  true,
	AbilityFrenzy:    true,
}

// Sensitive reports whether the ability is subject to the minimum inter-use
// interval.
func Sensitive(ability string) bool { return sensitiveAbilities[ability] }

// role maps a logical role name to the ability IDs that can fill it, in
// preference order.
type role struct {
	abilities []string
}

// AbilityIDs returns every ability ID in the catalogue. Hosts use it to
// decide which descriptors to mirror into the snapshot.
func AbilityIDs() []string {
	return []string{
		AbilityBolster, AbilityReap, AbilityScythe, AbilitySurge, AbilityBlight,
		AbilityQuell, AbilityShackle, AbilityTempest, AbilityGrasp,
		AbilityIronhide, AbilityStoneform, AbilityCarapace,
		AbilityFrenzy, AbilityScourge,
	}
}

// StatusIDs returns every status ID the core reads.
func StatusIDs() []string {
	return []string{StatusWard, StatusBlight, StatusIronhide, StatusStoneform, StatusCarapace}
}

// roles is the static registry of logical roles to concrete ability IDs.
var roles = map[string]role{
	"buffer_refresh":    {abilities: []string{AbilityBolster}},
	"slot_spender":      {abilities: []string{AbilityReap, AbilityScythe}},
	"power_spender":     {abilities: []string{AbilitySurge}},
	"emergency_heal":    {abilities: []string{AbilitySurge}},
	"direct_interrupt":  {abilities: []string{AbilityQuell}},
	"incapacitate":      {abilities: []string{AbilityShackle}},
	"area_interrupt":    {abilities: []string{AbilityTempest}},
	"displacement":      {abilities: []string{AbilityGrasp}},
	"strong_mitigation": {abilities: []string{AbilityIronhide, AbilityStoneform}},
	"shield":            {abilities: []string{AbilityCarapace}},
	"burst":             {abilities: []string{AbilityFrenzy}},
	"signature":         {abilities: []string{AbilityFrenzy, AbilityScourge}},
}
