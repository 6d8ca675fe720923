package host

// CastRequest records one dispatch through an ActionSink.
type CastRequest struct {
	Tick     int    `json:"tick"`
	Ability  string `json:"ability"`
	Target   int    `json:"target"`
	Accepted bool   `json:"accepted"`
}

// RecordingSink wraps an ActionSink and journals every dispatch. Harnesses
// and tests use it to assert on what the core actually attempted.
type RecordingSink struct {
	Inner    ActionSink
	Requests []CastRequest

	tick func() int
}

// NewRecordingSink journals dispatches to inner, stamping each with the
// current tick. tick may be nil.
func NewRecordingSink(inner ActionSink, tick func() int) *RecordingSink {
	return &RecordingSink{Inner: inner, tick: tick}
}

func (r *RecordingSink) Cast(ability string, target int) bool {
	accepted := false
	if r.Inner != nil {
		accepted = r.Inner.Cast(ability, target)
	}
	req := CastRequest{Ability: ability, Target: target, Accepted: accepted}
	if r.tick != nil {
		req.Tick = r.tick()
	}
	r.Requests = append(r.Requests, req)
	return accepted
}

// Accepted returns only the dispatches the world accepted.
func (r *RecordingSink) Accepted() []CastRequest {
	var out []CastRequest
	for _, req := range r.Requests {
		if req.Accepted {
			out = append(out, req)
		}
	}
	return out
}
