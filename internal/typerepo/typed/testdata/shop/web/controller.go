package web

import "example.com/shop/orders"

// Controller serves orders.
//
//arch:component web
type Controller struct {
	service orders.Service
}

func (c *Controller) Show(id string) bool {
	order, err := c.service.Find(id)
	return err == nil && order.Status == orders.StatusOpen
}
