package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const DefaultItemsPerPage = 50

type FilterState struct {
	SearchTerm     string  `json:"searchTerm"`
	Department     string  `json:"department"`
	MinImpact      float64 `json:"minImpact"`
	MinFeasibility float64 `json:"minFeasibility"`
	MinAutomation  float64 `json:"minAutomation"`
}

func (f FilterState) IsZero() bool {
	return f == FilterState{}
}

// FilterUpdate is a partial change to FilterState; nil fields are left as they are.
type FilterUpdate struct {
	SearchTerm     *string  `json:"searchTerm,omitempty"`
	Department     *string  `json:"department,omitempty"`
	MinImpact      *float64 `json:"minImpact,omitempty"`
	MinFeasibility *float64 `json:"minFeasibility,omitempty"`
	MinAutomation  *float64 `json:"minAutomation,omitempty"`
}

func (u FilterUpdate) Apply(f FilterState) FilterState {
	if u.SearchTerm != nil {
		f.SearchTerm = *u.SearchTerm
	}
	if u.Department != nil {
		f.Department = *u.Department
	}
	if u.MinImpact != nil {
		f.MinImpact = *u.MinImpact
	}
	if u.MinFeasibility != nil {
		f.MinFeasibility = *u.MinFeasibility
	}
	if u.MinAutomation != nil {
		f.MinAutomation = *u.MinAutomation
	}
	return f
}

// PageSize is either a positive item count or "all".
type PageSize struct {
	All bool
	N   int
}

func PageSizeAll() PageSize { return PageSize{All: true} }

func PageSizeOf(n int) PageSize { return PageSize{N: n} }

func (s PageSize) Valid() bool {
	return s.All || s.N > 0
}

func (s PageSize) String() string {
	if s.All {
		return "all"
	}
	return strconv.Itoa(s.N)
}

func ParsePageSize(raw string) (PageSize, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return PageSizeAll(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return PageSize{}, fmt.Errorf("items per page must be a positive integer or \"all\", got %q", raw)
	}
	return PageSizeOf(n), nil
}

func (s PageSize) MarshalJSON() ([]byte, error) {
	if s.All {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(s.N)), nil
}

func (s *PageSize) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := ParsePageSize(raw)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("items per page: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("items per page must be positive, got %d", n)
	}
	*s = PageSizeOf(n)
	return nil
}

// EmptyReason explains why a filtered view has no rows.
type EmptyReason string

const (
	EmptyReasonNone               EmptyReason = ""
	EmptyReasonNoData             EmptyReason = "no_data"
	EmptyReasonUnknownDepartment  EmptyReason = "unknown_department"
	EmptyReasonDepartmentMismatch EmptyReason = "department_mismatch"
	EmptyReasonNoMatch            EmptyReason = "no_match"
)

type Page struct {
	Items        []Process `json:"items"`
	CurrentPage  int       `json:"currentPage"`
	TotalPages   int       `json:"totalPages"`
	ItemsPerPage PageSize  `json:"itemsPerPage"`
	Start        int       `json:"start"`
	End          int       `json:"end"`
	Total        int       `json:"total"`
	PageButtons  []int     `json:"pageButtons"`
	HasPrev      bool      `json:"hasPrev"`
	HasNext      bool      `json:"hasNext"`
	ShowControls bool      `json:"showControls"`
}

func (p Page) Label() string {
	return fmt.Sprintf("Showing %d–%d of %d", p.Start, p.End, p.Total)
}

type View struct {
	Session       string      `json:"session"`
	Filters       FilterState `json:"filters"`
	Page          Page        `json:"page"`
	Showing       string      `json:"showing"`
	FilteredCount int         `json:"filteredCount"`
	StoreCount    int         `json:"storeCount"`
	EmptyReason   EmptyReason `json:"emptyReason,omitempty"`
	Departments   []string    `json:"departments"`
	StoreVersion  uint64      `json:"storeVersion"`
}
