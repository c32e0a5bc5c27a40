package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eugenenazirov/rollcut/internal/cutting"
)

const (
	// DefaultStockLength is used until a stock length is configured.
	DefaultStockLength = 6000
	// DefaultPlanHistory caps the number of plans kept in memory.
	DefaultPlanHistory = 100
)

var (
	// ErrInvalidStockLength indicates a non-positive stock length.
	ErrInvalidStockLength = errors.New("stock length must be a positive integer")
	// ErrPlanNotFound indicates an unknown or evicted plan id.
	ErrPlanNotFound = errors.New("plan not found")
)

// Plan is a stored cutting plan together with the request that produced it.
type Plan struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"createdAt"`
	StockLength int              `json:"stockLength"`
	Demands     []cutting.Demand `json:"demands"`
	Result      cutting.Result   `json:"-"`
}

// Storage provides access to the default stock length and computed plans.
type Storage interface {
	GetStockLength() (int, error)
	SetStockLength(length int) error
	SavePlan(plan Plan) (Plan, error)
	GetPlan(id string) (Plan, error)
	ListPlans() ([]Plan, error)
}

// Option customises a MemoryStorage.
type Option func(*MemoryStorage)

// WithStockLength sets the initial stock length. Non-positive values are ignored.
func WithStockLength(length int) Option {
	return func(s *MemoryStorage) {
		if length > 0 {
			s.stockLength = length
		}
	}
}

// WithPlanHistory sets how many plans are kept before the oldest is evicted.
func WithPlanHistory(n int) Option {
	return func(s *MemoryStorage) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// MemoryStorage keeps state in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu          sync.RWMutex
	stockLength int
	capacity    int
	plans       map[string]Plan
	order       []string
	now         func() time.Time
}

// NewMemoryStorage initialises storage with the default stock length and an empty history.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		stockLength: DefaultStockLength,
		capacity:    DefaultPlanHistory,
		plans:       make(map[string]Plan),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStockLength returns the configured default stock length.
func (s *MemoryStorage) GetStockLength() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stockLength, nil
}

// SetStockLength validates and stores the default stock length.
func (s *MemoryStorage) SetStockLength(length int) error {
	if length <= 0 {
		return ErrInvalidStockLength
	}

	s.mu.Lock()
	s.stockLength = length
	s.mu.Unlock()

	return nil
}

// SavePlan assigns an id and creation time and stores a copy of the plan,
// evicting the oldest one when the history is full.
func (s *MemoryStorage) SavePlan(plan Plan) (Plan, error) {
	stored := clonePlan(plan)
	stored.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored.CreatedAt = s.now().UTC()
	s.plans[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	for len(s.order) > s.capacity {
		delete(s.plans, s.order[0])
		s.order = s.order[1:]
	}

	return clonePlan(stored), nil
}

// GetPlan returns a copy of the plan with the given id.
func (s *MemoryStorage) GetPlan(id string) (Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return clonePlan(plan), nil
}

// ListPlans returns copies of the stored plans, newest first.
func (s *MemoryStorage) ListPlans() ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Plan, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, clonePlan(s.plans[s.order[i]]))
	}
	return out, nil
}

func clonePlan(p Plan) Plan {
	out := p
	out.Demands = append([]cutting.Demand(nil), p.Demands...)
	out.Result.Bounds.PerOrderCap = append([]int(nil), p.Result.Bounds.PerOrderCap...)
	if p.Result.Plan.Rolls != nil {
		out.Result.Plan.Rolls = make([]cutting.Roll, len(p.Result.Plan.Rolls))
		for i, r := range p.Result.Plan.Rolls {
			out.Result.Plan.Rolls[i] = cutting.Roll{Pieces: append([]int(nil), r.Pieces...), Waste: r.Waste}
		}
	}
	return out
}
