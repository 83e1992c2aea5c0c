package orders

type Repository interface {
	Load(id string) (*Order, error)
}

type Auditor interface {
	Record(event string)
}

type ReadWriter interface {
	Repository
	Save(o *Order) error
}
