package entity

import "time"

// Acciones del evento de auditoría de dominio.
const (
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionDelete  = "delete"
	AuditActionPublish = "publish"
	AuditActionVoid    = "void"
)

// AuditEntityMovement entidad auditada para documentos de movimiento.
const AuditEntityMovement = "movement"

// AuditEvent evento de auditoría de dominio (quién hizo qué sobre qué documento).
type AuditEvent struct {
	ID       string
	Entity   string
	EntityID string
	Action   string
	UserID   string
	Meta     map[string]any
	At       time.Time
}
