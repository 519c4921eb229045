package crewflow

import "fmt"

// FinishVerdict is the validator's terminate signal. It is translated to
// WorkerFinalOutput before routing.
const FinishVerdict = "FINISH"

// transitions is the closed routing table. Every declared successor must be
// a member of the entry for the declaring worker; anything else is rejected
// by the engine as a RouteError. Terminal workers map to END only.
var transitions = map[WorkerName][]WorkerName{
	WorkerSupervisor:    {WorkerEnhancer, WorkerResearcher, WorkerCoder, WorkerGeneralAnswer},
	WorkerEnhancer:      {WorkerSupervisor},
	WorkerResearcher:    {WorkerValidator},
	WorkerCoder:         {WorkerValidator},
	WorkerValidator:     {WorkerSupervisor, WorkerFinalOutput},
	WorkerFinalOutput:   {END},
	WorkerGeneralAnswer: {END},
}

// EntryWorker is where every turn starts.
const EntryWorker = WorkerSupervisor

// ValidTransition reports whether from may declare next as its successor.
func ValidTransition(from, next WorkerName) bool {
	for _, t := range transitions[from] {
		if t == next {
			return true
		}
	}
	return false
}

// Successors returns the legal successors of a worker, in table order.
// Returns nil for unknown workers.
func Successors(from WorkerName) []WorkerName {
	out := make([]WorkerName, len(transitions[from]))
	copy(out, transitions[from])
	if len(out) == 0 {
		return nil
	}
	return out
}

// WorkerNames returns every worker in the transition table. The order is
// not guaranteed.
func WorkerNames() []WorkerName {
	names := make([]WorkerName, 0, len(transitions))
	for name := range transitions {
		names = append(names, name)
	}
	return names
}

// IsTerminal reports whether a worker ends the turn on completion.
func IsTerminal(name WorkerName) bool {
	t := transitions[name]
	return len(t) == 1 && t[0] == END
}

// SupervisorDecision is the supervisor's structured classification output.
// The jsonschema tags drive the structured-output request; ToRoute enforces
// the closed enum regardless of what the model returned.
type SupervisorDecision struct {
	Next string `json:"next" jsonschema:"title=next,enum=enhancer,enum=researcher,enum=coder,enum=general_answer_provider,description=The specialist to activate next: 'enhancer' when the request needs clarification or refinement before work can start; 'researcher' when facts or external data must be gathered; 'coder' when computation or code execution is required; 'general_answer_provider' when the request fits no specialist or cannot be completed." validate:"required,oneof=enhancer researcher coder general_answer_provider"`
	Reason string `json:"reason" jsonschema:"title=reason,description=Justification for the routing decision." validate:"required"`
}

// ToRoute validates the decision against the supervisor's row of the
// transition table. An out-of-enum value is a fatal parse failure, never a
// default route.
func (d SupervisorDecision) ToRoute() (WorkerName, error) {
	next := WorkerName(d.Next)
	if !ValidTransition(WorkerSupervisor, next) {
		return "", &DecisionError{
			Point: WorkerSupervisor,
			Raw:   d.Next,
			Err:   fmt.Errorf("%q is not a legal supervisor target", d.Next),
		}
	}
	return next, nil
}

// ValidatorDecision is the validator's structured verdict.
type ValidatorDecision struct {
	Next string `json:"next" jsonschema:"title=next,enum=supervisor,enum=FINISH,description='supervisor' only when the answer is completely off-topic or wrong; 'FINISH' in every other case." validate:"required,oneof=supervisor FINISH"`
	Reason string `json:"reason" jsonschema:"title=reason,description=The reason for the verdict." validate:"required"`
}

// ToRoute maps the verdict onto the transition table: FINISH becomes the
// final output provider, supervisor loops back. Anything else is fatal.
func (d ValidatorDecision) ToRoute() (WorkerName, error) {
	switch d.Next {
	case FinishVerdict:
		return WorkerFinalOutput, nil
	case string(WorkerSupervisor):
		return WorkerSupervisor, nil
	default:
		return "", &DecisionError{
			Point: WorkerValidator,
			Raw:   d.Next,
			Err:   fmt.Errorf("%q is not a legal validator verdict", d.Next),
		}
	}
}
