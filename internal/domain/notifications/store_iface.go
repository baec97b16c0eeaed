package notifications

import "context"

type StoreAPI interface {
	Insert(ctx context.Context, n *Notification) (string, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, int, error)
	MarkRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	// RecipientEmail resolves the address and display name for a user so
	// the service can mirror notifications over email.
	RecipientEmail(ctx context.Context, userID string) (email, name string, err error)
}
