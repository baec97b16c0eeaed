package leave

import "context"

// StoreAPI is the persistence surface the leave service depends on. The
// Mark* methods must apply their status change conditionally and report
// whether a row was actually updated, so concurrent decisions on the same
// request resolve to exactly one winner.
type StoreAPI interface {
	ListTypes(ctx context.Context) ([]LeaveType, error)
	GetType(ctx context.Context, id string) (*LeaveType, error)

	Insert(ctx context.Context, req *LeaveRequest) (string, error)
	GetRequest(ctx context.Context, id string) (*RequestDetail, error)
	ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]RequestDetail, int, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]RequestDetail, int, error)

	MarkApproved(ctx context.Context, requestID, approverUserID string) (bool, error)
	MarkRejected(ctx context.Context, requestID, approverUserID, reason string) (bool, error)
	MarkCancelled(ctx context.Context, requestID, employeeID string) (bool, error)
	SetCertificateURL(ctx context.Context, requestID string, url *string) error

	EmployeeIDByUserID(ctx context.Context, userID string) (string, error)
}
