package services

import (
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"tally/internal/amqp"
	applog "tally/internal/log"
)

// EventAuditor consumes sale events off the queue and keeps running totals,
// giving operators a live mirror of register activity without touching the
// journal. Handler errors requeue the delivery, so an event the auditor does
// not understand is counted and dropped instead of returned as an error.
type EventAuditor struct {
	mu       sync.Mutex
	recorded int64
	deleted  int64
	skipped  int64
	revenue  decimal.Decimal
}

// AuditTotals is a point-in-time snapshot of the auditor's counters.
type AuditTotals struct {
	Recorded int64
	Deleted  int64
	Skipped  int64
	Revenue  decimal.Decimal
}

func NewEventAuditor() *EventAuditor {
	return &EventAuditor{revenue: decimal.Zero}
}

// Handle processes one sale event. It matches the consumer's handler
// signature and never fails on event content.
func (a *EventAuditor) Handle(event *amqp.SaleEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch event.Action {
	case amqp.ActionRecorded:
		a.recorded++
		a.revenue = a.revenue.Add(event.Total)
		fields := applog.NewFields().
			WithComponent(applog.ComponentWorker).
			WithOperation(applog.OpCreate).
			WithSale(event.TransactionID, event.ItemName, event.Total.String())
		slog.Info("Sale recorded", fields.ToSlice()...)
	case amqp.ActionDeleted:
		a.deleted++
		fields := applog.NewFields().
			WithComponent(applog.ComponentWorker).
			WithOperation(applog.OpDelete).
			WithTransactionID(event.TransactionID)
		slog.Info("Sale deleted", fields.ToSlice()...)
	default:
		a.skipped++
		slog.Warn("Skipping event with unknown action",
			applog.FieldComponent, applog.ComponentWorker,
			"action", event.Action,
			applog.FieldTransactionID, event.TransactionID)
	}

	return nil
}

// Snapshot returns the current counters.
func (a *EventAuditor) Snapshot() AuditTotals {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AuditTotals{
		Recorded: a.recorded,
		Deleted:  a.deleted,
		Skipped:  a.skipped,
		Revenue:  a.revenue,
	}
}
