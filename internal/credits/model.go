package credits

import "time"

// Category names one credit bucket. Paid actions debit their own category
// first and fall back to the universal balance when it is exhausted.
type Category string

const (
	CategoryInterview Category = "interview"
	CategoryResume    Category = "resume"
	CategoryRewrite   Category = "rewrite"
	CategoryLinkedIn  Category = "linkedin"
	CategoryUniversal Category = "universal"
)

// Categories lists every bucket in a stable order.
var Categories = []Category{
	CategoryInterview,
	CategoryResume,
	CategoryRewrite,
	CategoryLinkedIn,
	CategoryUniversal,
}

// Balance is one bucket's remaining allowance and its per-period cap.
type Balance struct {
	Remaining int `json:"remaining"`
	Cap       int `json:"cap"`
}

// Snapshot is a user's plan and credit state.
type Snapshot struct {
	Plan      string               `json:"plan"`
	Unlimited bool                 `json:"unlimited"`
	Balances  map[Category]Balance `json:"balances"`
	ResetsAt  time.Time            `json:"resetsAt"`
}
