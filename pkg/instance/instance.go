package instance

import (
	"os"

	"github.com/logiccrafts/connect-backend/pkg/env"
)

const fallbackID = "worker-0"

// GetID names this process in logs and lock ownership tokens. LCC_WORKER_ID
// wins over the host name, which is the pod name when running in a cluster.
func GetID() string {
	if id := env.Get("LCC_WORKER_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
