// Package health define la respuesta de /readyz.
package health

import "time"

// HealthStatus es el estado de un componente: ok | error | missing | disabled.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse: Status es ready | degraded | unavailable.
type HealthResponse struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version,omitempty"`
	Components map[string]HealthStatus `json:"components"`
	Timestamp  time.Time               `json:"timestamp"`
}
