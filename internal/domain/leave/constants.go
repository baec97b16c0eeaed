package leave

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// transitions is the authoritative table for LeaveRequest.status. Anything
// absent here is forbidden; approved, rejected and cancelled are terminal.
var transitions = map[string][]string{
	StatusPending: {StatusApproved, StatusRejected, StatusCancelled},
}

// CanTransition reports whether a status change is legal.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
