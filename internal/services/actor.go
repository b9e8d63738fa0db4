package services

// Actor is the authenticated administrator performing an operation, with
// the request metadata recorded in the audit trail.
type Actor struct {
	ID        string
	Role      string
	IPAddress string
	UserAgent string
}

// SystemActor is used for scheduled jobs.
var SystemActor = Actor{ID: "system", Role: "system"}
