package domain

// Priority orders skills when suggestions are requested.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority converts a string to a Priority, defaulting to Medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityHigh:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// Rank is higher for more important skills.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

type Skill struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category"`
	Priority    Priority `json:"priority"`
}

type Profile struct {
	Name                string   `json:"name"`
	SelectedCategories  []string `json:"selected_categories,omitempty"`
	Skills              []Skill  `json:"skills"`
	CompletedOnboarding bool     `json:"completed_onboarding"`
}
