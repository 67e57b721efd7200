package interfaces

import "net/http"

// HTTPHandler is what cmd/server mounts on its http.Server.
type HTTPHandler interface {
	http.Handler
}
