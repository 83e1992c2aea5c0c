package web

import "example.com/shop/orders"

// OrderController serves orders.
//
//arch:component
type OrderController struct {
	service orders.Service
}

func (c *OrderController) Show(id string) (*orders.Order, error) {
	return c.service.Find(id)
}
