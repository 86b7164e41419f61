package credits

import "time"

// periodLength is the credit reset window.
const periodLength = 30 * 24 * time.Hour

func defaultSnapshot() Snapshot {
	return Snapshot{
		Plan:      "starter",
		Unlimited: false,
		Balances: map[Category]Balance{
			CategoryInterview: {Remaining: 5, Cap: 5},
			CategoryResume:    {Remaining: 5, Cap: 5},
			CategoryRewrite:   {Remaining: 5, Cap: 5},
			CategoryLinkedIn:  {Remaining: 5, Cap: 5},
			CategoryUniversal: {Remaining: 10, Cap: 10},
		},
		ResetsAt: time.Now().UTC().Add(periodLength),
	}
}

func validCategory(cat Category) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}
