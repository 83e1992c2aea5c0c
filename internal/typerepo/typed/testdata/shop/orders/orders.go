package orders

// Service looks orders up.
type Service interface {
	Find(id string) (*Order, error)
}

type Repository interface {
	Load(id string) (*Order, error)
}

type Status int

const (
	StatusOpen Status = iota
	StatusClosed
)

type Order struct {
	ID     string
	Status Status
}

type Base struct{}

func (Base) Close() error { return nil }
