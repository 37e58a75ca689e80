// Package instance names the running process in logs.
package instance

import (
	"os"

	"github.com/angelmondragon/orderflow-backend/pkg/env"
)

// GetID returns the platform dyno name, the container hostname, or
// "<kind>-local" when neither is set.
func GetID(kind string) string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	return env.Get("HOSTNAME", kind+"-local")
}
