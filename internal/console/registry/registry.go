// Package registry keeps the ordered, name-keyed list of problem summaries.
package registry

import (
	"sync"

	"gradedesk/internal/console/model"
)

// Stats aggregates the progress panel numbers.
type Stats struct {
	Solved   int
	Total    int
	Score    float64
	MaxScore float64
}

// Registry is safe for concurrent use. Getters return copies.
type Registry struct {
	mu    sync.RWMutex
	order []string
	items map[string]*model.ProblemSummary
}

func New() *Registry {
	return &Registry{items: make(map[string]*model.ProblemSummary)}
}

// Replace swaps in a freshly loaded list. Later duplicates of a name are dropped.
func (r *Registry) Replace(problems []model.ProblemSummary) {
	order := make([]string, 0, len(problems))
	items := make(map[string]*model.ProblemSummary, len(problems))
	for _, p := range problems {
		if _, dup := items[p.Name]; dup {
			continue
		}
		entry := p.Clone()
		items[p.Name] = &entry
		order = append(order, p.Name)
	}

	r.mu.Lock()
	r.order = order
	r.items = items
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Names returns the problem names in list order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Index returns the position of name, or -1.
func (r *Registry) Index(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[name]
	return ok
}

func (r *Registry) Get(name string) (model.ProblemSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[name]
	if !ok {
		return model.ProblemSummary{}, false
	}
	return p.Clone(), true
}

// List returns copies of every entry in order.
func (r *Registry) List() []model.ProblemSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ProblemSummary, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.items[name].Clone())
	}
	return out
}

// ApplyRun overwrites the run fields of name with res. withPoints also copies
// total_points. Returns false when name is unknown.
func (r *Registry) ApplyRun(name string, res *model.RunResult, withPoints bool) bool {
	if res == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[name]
	if !ok {
		return false
	}
	p.Score = res.Score
	p.Passed = res.PassedCount
	p.TotalTests = res.TotalCount
	p.HasRun = true
	p.Details = append(model.Details(nil), res.Details...)
	if withPoints {
		p.TotalPoints = res.TotalPoints
	}
	return true
}

// Neighbor returns the name delta steps away from name in list order.
func (r *Registry) Neighbor(name string, delta int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := -1
	for i, n := range r.order {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}
	next := idx + delta
	if next < 0 || next >= len(r.order) {
		return "", false
	}
	return r.order[next], true
}

// Stats counts solved problems (run and fully passed) and sums scores.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := Stats{Total: len(r.order)}
	for _, name := range r.order {
		p := r.items[name]
		if p.HasRun && p.FullyPassed() {
			st.Solved++
		}
		st.Score += p.Score
		st.MaxScore += p.TotalPoints
	}
	return st
}
