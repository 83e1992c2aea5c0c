package orders

// Service looks orders up.
type Service interface {
	Find(id string) (*Order, error)
}

type service struct {
	repo Repository
	audit
}

func (s *service) Find(id string) (*Order, error) {
	s.Record("find")
	return s.repo.Load(id)
}

type audit struct{}

func (audit) Record(event string) {}

type Status int

const (
	StatusOpen Status = iota
	StatusClosed
)

type Order struct {
	ID     string
	Status Status
}
