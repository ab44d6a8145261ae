package server

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// widgetPathPrefix covers the read endpoints the dropdown widget calls from
// the Jira page. Nothing else is exposed cross-origin.
const widgetPathPrefix = "/api/labels"

func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	handler = s.recoverPanics(handler)
	handler = widgetCORS(handler)
	return s.accessLog(handler)
}

// accessLog writes one line per finished request. Server errors are logged
// at warn; a websocket session is logged once it closes.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		event := s.app.Logger.Debug()
		msg := "HTTP request"
		switch {
		case rec.hijacked:
			msg = "WebSocket session closed"
		case rec.status() >= http.StatusInternalServerError:
			event = s.app.Logger.Warn()
		}

		event = event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status()).
			Int64("duration_ms", time.Since(start).Milliseconds())
		if r.URL.RawQuery != "" {
			event = event.Str("query", r.URL.RawQuery)
		}
		event.Msg(msg)
	})
}

func widgetCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, widgetPathPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.app.Logger.Error().
					Str("panic", fmt.Sprintf("%v", v)).
					Str("path", r.URL.Path).
					Msg("Handler panicked")

				// Headers already sent or connection handed to the websocket.
				if rec, ok := w.(*statusRecorder); ok && (rec.code != 0 || rec.hijacked) {
					return
				}
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the response code and whether the websocket
// upgrader took the connection.
type statusRecorder struct {
	http.ResponseWriter
	code     int
	hijacked bool
}

func (rec *statusRecorder) status() int {
	if rec.hijacked {
		return http.StatusSwitchingProtocols
	}
	if rec.code == 0 {
		return http.StatusOK
	}
	return rec.code
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.code == 0 {
		rec.code = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.code == 0 {
		rec.code = http.StatusOK
	}
	return rec.ResponseWriter.Write(b)
}

func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	conn, rw, err := hijacker.Hijack()
	if err == nil {
		rec.hijacked = true
	}
	return conn, rw, err
}
