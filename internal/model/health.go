package model

// ServicesHealth is health of collaborator services
type ServicesHealth struct {
	Accounts   bool `json:"accounts"`
	Compliance bool `json:"compliance"`
	Overall    bool `json:"overall"`
}

// Dependencies is health of every service dependency
type Dependencies struct {
	Database         bool           `json:"database"`
	ExternalServices ServicesHealth `json:"externalServices"`
}

// HealthReport is overall service health
type HealthReport struct {
	Status       string       `json:"status"`
	Dependencies Dependencies `json:"dependencies"`
	Uptime       float64      `json:"uptime"`
}

// Healthy reports whether every dependency is up
func (r *HealthReport) Healthy() bool {
	return r.Dependencies.Database && r.Dependencies.ExternalServices.Overall
}
