package domain

// Action names a write an actor may trigger on a visible query.
type Action string

const (
	ActionAssign   Action = "assign"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
)

// Target returns the status the action moves a query to.
func (a Action) Target() QueryStatus {
	switch a {
	case ActionAssign:
		return StatusAssigned
	case ActionStart:
		return StatusInProgress
	case ActionComplete:
		return StatusCompleted
	}
	return ""
}
