package view

import (
	"sync"

	"token_radar/models"
)

type Params struct {
	Filter      models.Filter  `json:"filter"`
	SearchQuery string         `json:"searchQuery"`
	SortBy      models.SortKey `json:"sortBy"`
}

func DefaultParams() Params {
	return Params{
		Filter: models.FilterAll,
		SortBy: models.SortByMarketCap,
	}
}

// State is one presentation's view parameters. The three values are set
// independently and never validated against each other.
type State struct {
	mu     sync.RWMutex
	params Params
}

func NewState(initial Params) *State {
	return &State{params: initial}
}

func (s *State) Get() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

func (s *State) SetFilter(f models.Filter) {
	s.mu.Lock()
	s.params.Filter = f
	s.mu.Unlock()
}

func (s *State) SetSearchQuery(q string) {
	s.mu.Lock()
	s.params.SearchQuery = q
	s.mu.Unlock()
}

func (s *State) SetSortBy(k models.SortKey) {
	s.mu.Lock()
	s.params.SortBy = k
	s.mu.Unlock()
}

// ParseParams builds Params from raw user input, rejecting unknown filter
// and sort values. Empty filter or sort fall back to the defaults.
func ParseParams(filter, query, sortBy string) (Params, error) {
	f, err := models.ParseFilter(filter)
	if err != nil {
		return Params{}, err
	}
	k, err := models.ParseSortKey(sortBy)
	if err != nil {
		return Params{}, err
	}
	return Params{Filter: f, SearchQuery: query, SortBy: k}, nil
}
