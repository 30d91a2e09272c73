package matching

const (
	RemoteOnly     = "remote-only"
	RemoteHybrid   = "hybrid"
	RemoteOnsite   = "onsite"
	RemoteFlexible = "flexible"

	// DefaultMinMatchScore applies when a profile does not set its own threshold.
	DefaultMinMatchScore = 70
)

// SalaryRange bounds are optional; a nil or zero bound accepts anything.
type SalaryRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Profile is the candidate side of a match: search criteria, preferences and
// what was learned from the CV.
type Profile struct {
	UserID              string      `json:"user_id"`
	SpokenLanguages     []string    `json:"spoken_languages"`
	Titles              []string    `json:"titles"`
	Locations           []string    `json:"locations"`
	RemotePreference    string      `json:"remote_preference"`
	WillingToRelocate   bool        `json:"willing_to_relocate"`
	ExperienceLevel     string      `json:"experience_level,omitempty"`
	YearsOfExperience   int         `json:"years_of_experience,omitempty"`
	Skills              []string    `json:"skills"`
	Industries          []string    `json:"industries"`
	Salary              SalaryRange `json:"salary"`
	ExcludedCompanies   []string    `json:"excluded_companies,omitempty"`
	PriorityCompanies   []string    `json:"priority_companies,omitempty"`
	MinMatchScore       int         `json:"min_match_score"`
	DailyApplicationCap int         `json:"daily_application_cap,omitempty"`
	Aggressive          bool        `json:"aggressive,omitempty"`
}

// Threshold is the effective minimum score for ShouldApply.
func (p *Profile) Threshold() int {
	if p.MinMatchScore <= 0 {
		return DefaultMinMatchScore
	}
	return p.MinMatchScore
}
