package services

import "ridedesk/internal/domain"

type NavLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var (
	navDashboard  = NavLink{Label: "Dashboard", Path: "/dashboard"}
	navUpload     = NavLink{Label: "Upload Invoice", Path: "/upload-invoice"}
	navAllTickets = NavLink{Label: "All Tickets", Path: "/all-tickets"}
	navMasters    = NavLink{Label: "Masters", Path: "/masters"}
	navCreateRide = NavLink{Label: "Create Ride", Path: "/create-ride"}
)

// NavigationFor returns the sidebar links of a role. Unknown roles get none.
func NavigationFor(role domain.Role) []NavLink {
	switch domain.NormalizeRole(string(role)) {
	case domain.RolePlant:
		return []NavLink{navDashboard, navUpload, navAllTickets}
	case domain.RoleRA:
		return []NavLink{navDashboard, navAllTickets}
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return []NavLink{navDashboard, navMasters, navAllTickets, navCreateRide}
	default:
		return []NavLink{}
	}
}
