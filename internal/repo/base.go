package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by repositories whose methods accept an optional
// transaction handle.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// Conn returns tx when the caller is inside a transaction and the base
// handle otherwise, bound to ctx either way.
func (b Base) Conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	conn := b.db
	if tx != nil {
		conn = tx
	}
	if ctx == nil {
		return conn
	}
	return conn.WithContext(ctx)
}
