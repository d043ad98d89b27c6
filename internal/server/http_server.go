package server

import (
	"fmt"
	"net/http"
)

// initHTTPServer builds the http.Server from config. The write timeout must
// cover a whole sync stream, not just a single response (see Config).
func (s *serverImpl) initHTTPServer() {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.HTTPPort)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.wrapMiddleware(s.httpMux),
		ReadTimeout:  s.cfg.HTTPReadTimeout,
		WriteTimeout: s.cfg.HTTPWriteTimeout,
		IdleTimeout:  s.cfg.HTTPIdleTimeout,
	}
}

// runHTTPServer blocks on ListenAndServe and forwards fatal errors.
// A clean shutdown surfaces as ErrServerClosed and is not reported.
func (s *serverImpl) runHTTPServer(errChan chan<- error) {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("http server error: %w", err)
	}
}
