package models

// ErrorResponse is the body written for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthCheckResponse is returned by the health route
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
