package core

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"cyberhr/internal/platform/crypto"
)

// Store persists users and employees. Salaries are written through the
// cipher when one is configured; the plaintext numeric column stays NULL
// in that case.
type Store struct {
	db     *pgxpool.Pool
	cipher *crypto.Cipher
}

var _ StoreAPI = (*Store)(nil)

func NewStore(db *pgxpool.Pool, cipher *crypto.Cipher) *Store {
	return &Store{db: db, cipher: cipher}
}
