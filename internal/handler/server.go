package handler

import (
	"context"
	"net"
	"net/http"
	"time"
)

// NewServer wraps h in an http.Server whose request contexts are cancelled
// as soon as Shutdown starts, so long-lived order streams end with it.
func NewServer(addr string, h http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}
