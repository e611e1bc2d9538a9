package assess

import "strings"

// roleBlocklist disqualifies a lead when any entry appears as a substring of
// the free-text role field (case-insensitive). Disqualification is a routing
// decision, not an error: the funnel redirects these visitors to the
// self-serve resources branch instead of the sales pipeline.
var roleBlocklist = []string{
	"student",
	"unemployed",
	"looking for work",
	"between jobs",
	"retired",
}

// Disqualified reports whether a self-reported role routes the visitor to the
// non-sales branch.
func Disqualified(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, blocked := range roleBlocklist {
		if strings.Contains(role, blocked) {
			return true
		}
	}
	return false
}
