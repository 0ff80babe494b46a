package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tenant represents an organization sharing the deployment.
type Tenant struct {
	ID        uuid.UUID
	Key       string
	Slug      string
	Name      string
	Active    bool
	Archived  bool
	ParentID  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resolvable reports whether requests may be routed to the tenant.
func (t *Tenant) Resolvable() bool {
	return t.Active && !t.Archived
}

// NewKey returns a random opaque routing key.
func NewKey() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
