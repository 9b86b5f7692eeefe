package domain

import "time"

const (
	MinScale = 1
	MaxScale = 10

	MaxAutomationScore = 100
)

type Process struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Department      string    `json:"department"`
	Impact          int       `json:"impact"`
	Feasibility     int       `json:"feasibility"`
	AutomationScore int       `json:"automationScore"`
	TimeSpent       float64   `json:"timeSpent"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewProcessInput is what a client may set; the score is always derived.
type NewProcessInput struct {
	Name        string  `json:"name" yaml:"name"`
	Department  string  `json:"department" yaml:"department"`
	Impact      int     `json:"impact" yaml:"impact"`
	Feasibility int     `json:"feasibility" yaml:"feasibility"`
	TimeSpent   float64 `json:"timeSpent" yaml:"time_spent"`
}

// AutomationScore maps the two 1..10 ratings onto 0..100.
func AutomationScore(impact, feasibility int) int {
	score := impact * feasibility
	if score < 0 {
		return 0
	}
	if score > MaxAutomationScore {
		return MaxAutomationScore
	}
	return score
}

type DepartmentStats struct {
	Department         string  `json:"department"`
	Processes          int     `json:"processes"`
	AvgImpact          float64 `json:"avgImpact"`
	AvgFeasibility     float64 `json:"avgFeasibility"`
	AvgAutomationScore float64 `json:"avgAutomationScore"`
	TotalTimeSpent     float64 `json:"totalTimeSpent"`
}

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeDeleted ChangeKind = "deleted"
	ChangeCleared ChangeKind = "cleared"
	ChangeSeeded  ChangeKind = "seeded"
)

// ProcessesChanged is broadcast after every successful mutation of the backend.
type ProcessesChanged struct {
	Origin    string     `json:"origin"`
	Kind      ChangeKind `json:"kind"`
	ProcessID string     `json:"process_id,omitempty"`
	At        time.Time  `json:"at"`
}
