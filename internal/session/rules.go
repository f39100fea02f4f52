package session

import "strings"

// Rules lists the page routes and how they are protected.
type Rules struct {
	Public           []string // exact matches
	Protected        []string // prefixes
	ManagerOnly      []string // prefixes, subset of Protected
	LoginPath        string
	UserDashboard    string
	ManagerDashboard string
}

// DefaultRules returns the route table of the review application.
func DefaultRules() Rules {
	return Rules{
		Public: []string{"/", "/register"},
		Protected: []string{
			"/dashboard",
			"/manager-dashboard",
			"/search",
			"/feedback",
			"/new-meeting",
			"/recording",
		},
		ManagerOnly:      []string{"/manager-dashboard"},
		LoginPath:        "/",
		UserDashboard:    "/dashboard",
		ManagerDashboard: "/manager-dashboard",
	}
}

// IsPublic reports whether path is a public page.
func (r Rules) IsPublic(path string) bool {
	path = normalize(path)
	for _, p := range r.Public {
		if path == p {
			return true
		}
	}
	return false
}

// IsProtected reports whether path requires a session.
func (r Rules) IsProtected(path string) bool {
	return matchAny(r.Protected, path)
}

// IsManagerOnly reports whether path requires the manager role.
func (r Rules) IsManagerOnly(path string) bool {
	return matchAny(r.ManagerOnly, path)
}

// DashboardFor returns the landing page for the role.
func (r Rules) DashboardFor(isManager bool) string {
	if isManager {
		return r.ManagerDashboard
	}
	return r.UserDashboard
}

func matchAny(prefixes []string, path string) bool {
	path = normalize(path)
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
