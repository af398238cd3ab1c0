package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusTrending Status = "trending"
	StatusNew      Status = "new"
)

type Filter string

const (
	FilterAll      Filter = "all"
	FilterTrending Filter = "trending"
	FilterNew      Filter = "new"
	FilterActive   Filter = "active"
)

type SortKey string

const (
	SortByMarketCap  SortKey = "marketCap"
	SortByChange24h  SortKey = "change24h"
	SortByLaunchDate SortKey = "launchDate"
)

var (
	ErrInvalidFilter  = errors.New("invalid filter")
	ErrInvalidSortKey = errors.New("invalid sort key")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidDate    = errors.New("invalid launch date")
)

var (
	Filters  = []Filter{FilterAll, FilterTrending, FilterNew, FilterActive}
	SortKeys = []SortKey{SortByMarketCap, SortByChange24h, SortByLaunchDate}
	Statuses = []Status{StatusActive, StatusInactive, StatusTrending, StatusNew}
)

type Token struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Symbol     string  `json:"symbol"`
	Agent      string  `json:"agent"`
	AgentType  string  `json:"agentType"`
	LaunchDate Date    `json:"launchDate"`
	MarketCap  float64 `json:"marketCap"`
	Price      float64 `json:"price"`
	Change24h  float64 `json:"change24h"`
	Holders    int64   `json:"holders"`
	Status     Status  `json:"status"`
	Chain      string  `json:"chain"`
}

// Date is a calendar day. It orders as an instant and encodes as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (f Filter) Valid() bool {
	for _, v := range Filters {
		if f == v {
			return true
		}
	}
	return false
}

func (k SortKey) Valid() bool {
	for _, v := range SortKeys {
		if k == v {
			return true
		}
	}
	return false
}

// ParseFilter maps user input to a Filter. Empty input means all.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
	return f, nil
}

// ParseSortKey matches the camelCase key names case-insensitively.
// Empty input means marketCap.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortByMarketCap, nil
	}
	for _, k := range SortKeys {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}
