package api

import (
	"log/slog"
	"net/http"
)

// Audit event names. Events never include tags, keys or blob content,
// only usernames and failure reasons.
const (
	AuditRegister        = "auth.register"
	AuditRegisterFailure = "auth.register.failure"
	AuditLogin           = "auth.login"
	AuditLoginFailure    = "auth.login.failure"
	AuditTokenRejected   = "auth.token.rejected"
	AuditBlobWrite       = "blob.write"
	AuditBlobDelete      = "blob.delete"
	AuditStorageFailure  = "storage.failure"
)

type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{logger: logger}
}

func (l *auditLogger) logEvent(event string, r *http.Request, username string, attrs ...slog.Attr) {
	args := []any{
		slog.String("event", event),
		slog.String("username", username),
		slog.String("remote_addr", r.RemoteAddr),
	}
	for _, a := range attrs {
		args = append(args, a)
	}
	l.logger.Info("audit", args...)
}

func (l *auditLogger) logFailure(event string, r *http.Request, reason string, attrs ...slog.Attr) {
	args := []any{
		slog.String("event", event),
		slog.String("reason", reason),
		slog.String("remote_addr", r.RemoteAddr),
	}
	for _, a := range attrs {
		args = append(args, a)
	}
	l.logger.Warn("audit", args...)
}
