package core

// Scheduler decides which projects run, and in what order.
type Scheduler struct{}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Select returns the single project named filter, or every project in
// declaration order when filter is empty.
func (s *Scheduler) Select(cfg *Config, filter string) ([]ProjectSpec, error) {
	if filter == "" {
		return cfg.Projects, nil
	}
	p, err := cfg.Project(filter)
	if err != nil {
		return nil, err
	}
	return []ProjectSpec{p}, nil
}
