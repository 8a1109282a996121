package apipaths

import "net/url"

// Remote API paths consumed through the HTTP client core, and the page paths
// shared by the session manager and the edge gateway.

const (
	AuthLogin    = "/auth/login"
	AuthRegister = "/auth/register"
	AuthRefresh  = "/auth/refresh"
	AuthLogout   = "/auth/logout"
	Tasks        = "/tasks"

	// Health is answered by the gateway itself, never forwarded.
	Health = "/api/health"
)

const (
	LoginPage    = "/login"
	RegisterPage = "/register"
	HomePage     = "/"
)

func TaskByID(taskID string) string  { return Tasks + "/" + url.PathEscape(taskID) }
func TaskToggle(taskID string) string { return TaskByID(taskID) + "/toggle" }
