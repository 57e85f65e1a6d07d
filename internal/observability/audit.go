package observability

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Audit logs a security relevant event with the request coordinates.
// Callers must not pass secrets (passwords, tokens) as attrs.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_ip", remoteHost(r.RemoteAddr),
		"request_id", middleware.GetReqID(r.Context()),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), "audit", base...)
}

// AuditResult logs event with outcome "success" when code is empty and
// "failure" plus the error code otherwise.
func AuditResult(r *http.Request, event, code string, attrs ...any) {
	if code == "" {
		Audit(r, event, append([]any{"outcome", "success"}, attrs...)...)
		return
	}
	Audit(r, event, append([]any{"outcome", "failure", "code", code}, attrs...)...)
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
