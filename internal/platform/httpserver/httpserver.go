package httpserver

import (
	"net/http"
	"time"
)

// New returns an http.Server with a bounded header read timeout so idle
// clients cannot hold connections open indefinitely.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
