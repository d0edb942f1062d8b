// Package driver implements the shared state-machine loop (C7): each
// change log is seeded as Initial and advanced through resolver steps,
// with a bounded 3-round retry budget, grounded 1:1 on binlog/processor.rs
// and its org/user-specific instantiations (org_processor.rs,
// user_processor.rs's advance_states/process).
package driver

import "github.com/gsoultan/binlogsync/internal/model"

// StateKind tags which stage a State has reached. Go has no sum types, so
// per Design Notes §9 this is modeled as a tagged struct with a Kind enum
// rather than one Go type per stage — both the org (4-state) and user
// (3-state) variants share this one struct and one driver loop keyed by
// Kind, instead of two separate type hierarchies.
type StateKind int

const (
	StateInitial StateKind = iota
	StateGotStep1
	StateGotStep2
	StateGotMapping
)

// State carries whatever payload the log has accumulated so far. I1/I2 are
// the step1/step2 resolved records (model.Org+model.OrgTree for the org
// variant, model.User+unused for the user variant, which skips step2).
// Mapping is model.MssOrgMapping or model.MssUserMapping. Key is the
// resolved mssCode/hrCode used to query the MSS candidate list.
type State struct {
	Kind    StateKind
	Log     model.ChangeLog
	I1, I2  interface{}
	Mapping interface{}
	Key     string
}

// TransitionKind tags a Transition as either advancing to a new State or
// having reached Completed with the final resolved records.
type TransitionKind int

const (
	TransitionAdvanced TransitionKind = iota
	TransitionCompleted
)

// Transition is the result of one resolver step: either the next State to
// resume from, or the final payload once every step has succeeded.
type Transition struct {
	Kind  TransitionKind
	Next  State
	Final interface{}
}

// Advanced builds a Transition that moves the state machine forward.
func Advanced(next State) Transition {
	return Transition{Kind: TransitionAdvanced, Next: next}
}

// Completed builds a Transition carrying the final resolved records.
func Completed(final interface{}) Transition {
	return Transition{Kind: TransitionCompleted, Final: final}
}
