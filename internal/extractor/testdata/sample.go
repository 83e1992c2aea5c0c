package sample

import (
	"fmt"
	"io"

	store "example.com/shop/internal/storage"
)

// Status is an order state.
type Status int

const (
	// StatusNew is the initial state.
	StatusNew Status = iota
	StatusPaid
	StatusShipped
)

const Version = "1.0.0"

// Base is a base struct.
type Base struct {
	ID int
}

// OrderController serves orders over HTTP.
//
//arch:component web
type OrderController struct {
	Base
	repo   store.OrderRepository
	Logger *io.PipeWriter `json:"-"`
}

// Handler is an interface.
type Handler interface {
	fmt.Stringer
	Handle(ctx string, data interface{}) (int, error)
	Close()
}

// Show renders one order.
func (c *OrderController) Show(id int) (*Order, error) {
	o := &Order{}
	_ = Base{ID: id}
	return o, nil
}

func (c OrderController) Close() {}

type Order struct {
	Status Status
	Items  []store.Item
}
