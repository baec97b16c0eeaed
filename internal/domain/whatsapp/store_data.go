package whatsapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var ErrUnknownPhone = errors.New("no user registered under this phone number")

func (s *Store) LogMessage(ctx context.Context, m *Message) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`INSERT INTO whatsapp_conversations (phone, user_id, direction, message, intent)
		 VALUES ($1, NULLIF($2, '')::uuid, $3, $4, NULLIF($5, ''))
		 RETURNING id`,
		m.Phone, m.UserID, m.Direction, m.Body, m.Intent).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("log whatsapp message: %w", err)
	}
	return id, nil
}

func (s *Store) History(ctx context.Context, phone string, limit int) ([]Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, phone, COALESCE(user_id::text, ''), direction, message, COALESCE(intent, ''), created_at
		 FROM whatsapp_conversations
		 WHERE phone = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("whatsapp history: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (s *Store) ListConversations(ctx context.Context, limit, offset int) ([]Message, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM whatsapp_conversations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count whatsapp messages: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, phone, COALESCE(user_id::text, ''), direction, message, COALESCE(intent, ''), created_at
		 FROM whatsapp_conversations
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list whatsapp messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	return messages, total, err
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (string, string, error) {
	var userID, fullName string
	err := s.db.QueryRow(ctx,
		`SELECT id, full_name FROM users
		 WHERE regexp_replace(COALESCE(phone, ''), '[^0-9]', '', 'g') = regexp_replace($1, '[^0-9]', '', 'g')
		   AND phone IS NOT NULL`, phone).Scan(&userID, &fullName)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrUnknownPhone
	}
	if err != nil {
		return "", "", fmt.Errorf("user by phone: %w", err)
	}
	return userID, fullName, nil
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Phone, &m.UserID, &m.Direction, &m.Body, &m.Intent, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan whatsapp message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
