package orders

type service struct {
	Base
	repo Repository
}

func NewService(r Repository) Service {
	return &service{repo: r}
}

func (s *service) Find(id string) (*Order, error) {
	order, err := s.repo.Load(id)
	return order, err
}
