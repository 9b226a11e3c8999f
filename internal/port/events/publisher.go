// Package events defines the outbound event publishing port.
package events

import "context"

// Publisher delivers serialized events to a subject for external consumers
// (dashboards, auditing). Publishing is best-effort: orchestration outcomes
// never depend on it.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}
