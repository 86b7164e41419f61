package missions

import "time"

// Mission is the user's stated career objective. It seeds interview prompts,
// coach actions, and dashboard framing.
type Mission struct {
	UserID         string    `json:"-"`
	TargetRole     string    `json:"targetRole"`
	TargetCompany  string    `json:"targetCompany"`
	Seniority      string    `json:"seniority"`
	JobDescription string    `json:"jobDescription"`
	Timeline       string    `json:"timeline"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Empty reports whether no meaningful field is set.
func (m Mission) Empty() bool {
	return m.TargetRole == "" && m.TargetCompany == "" && m.JobDescription == ""
}
