package storage

import (
	"database/sql"

	"example.com/shop/orders"
)

// SQLRepository stores orders in a database.
type SQLRepository struct {
	db *sql.DB
}

func (r *SQLRepository) Load(id string) (*orders.Order, error) {
	return nil, nil
}

func (r *SQLRepository) Save(o *orders.Order) error {
	return nil
}
