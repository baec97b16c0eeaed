package whatsapp

import "context"

type StoreAPI interface {
	LogMessage(ctx context.Context, m *Message) (string, error)
	History(ctx context.Context, phone string, limit int) ([]Message, error)
	ListConversations(ctx context.Context, limit, offset int) ([]Message, int, error)
	// UserByPhone resolves the account registered under a phone number.
	UserByPhone(ctx context.Context, phone string) (userID, fullName string, err error)
}
