package health

import "net/http"

type Status string

const (
	Healthy  Status = "healthy"
	Draining Status = "draining"
)

type Response struct {
	Status  Status `json:"status"`
	Version string `json:"version"`
}

// Check returns the HTTP status code and body of a health probe. A service
// that is no longer healthy is draining and answers 503 so load balancers stop routing to it.
func Check(healthy bool, version string) (int, Response) {
	if healthy {
		return http.StatusOK, Response{Status: Healthy, Version: version}
	}

	return http.StatusServiceUnavailable, Response{Status: Draining, Version: version}
}
