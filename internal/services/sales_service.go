package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/catalog"
	"tally/internal/core"
	"tally/internal/journal"
	applog "tally/internal/log"
)

// SaleInput is what the register sends: a product name, how many, the sale
// date, and an optional category override.
type SaleInput struct {
	ItemName string `json:"itemName"`
	Qty      int64  `json:"qty"`
	Date     string `json:"date"`
	Category string `json:"category"`
}

// SalesService orchestrates sale operations across the catalog, the journal
// and AMQP.
type SalesService struct {
	catalog    *catalog.Catalog
	journal    *journal.Store
	amqpClient *amqp.Client
}

func NewSalesService(catalog *catalog.Catalog, journal *journal.Store, amqpClient *amqp.Client) *SalesService {
	return &SalesService{
		catalog:    catalog,
		journal:    journal,
		amqpClient: amqpClient,
	}
}

// CreateSale builds a transaction from the input, appends it to the journal
// and publishes a recorded event.
func (s *SalesService) CreateSale(ctx context.Context, in SaleInput) (core.Transaction, error) {
	var product *core.Product
	if p, ok := s.catalog.Lookup(in.ItemName); ok {
		product = &p
	}

	tx, err := core.BuildSale(product, in.Qty, in.Date, in.Category)
	if err != nil {
		return core.Transaction{}, err
	}

	s.journal.Append(ctx, tx)

	// Non-blocking publish: the sale is already recorded locally.
	if err := s.publishRecorded(ctx, tx); err != nil {
		fields := applog.NewFields().
			WithComponent(applog.ComponentSales).
			WithOperation(applog.OpPublish).
			WithTransactionID(tx.ID).
			WithError(err)
		slog.ErrorContext(ctx, "Failed to publish sale recorded event", fields.ToSlice()...)
	}

	return tx, nil
}

// DeleteSale removes the transaction with the given id. Removing an unknown
// id is a no-op and reports false.
func (s *SalesService) DeleteSale(ctx context.Context, id string) bool {
	if !s.journal.Remove(ctx, id) {
		return false
	}

	if err := s.publishDeleted(ctx, id); err != nil {
		fields := applog.NewFields().
			WithComponent(applog.ComponentSales).
			WithOperation(applog.OpPublish).
			WithTransactionID(id).
			WithError(err)
		slog.ErrorContext(ctx, "Failed to publish sale deleted event", fields.ToSlice()...)
	}

	return true
}

// ListSales returns the journal contents, newest first.
func (s *SalesService) ListSales() []core.Transaction {
	return s.journal.List()
}

func (s *SalesService) publishRecorded(ctx context.Context, tx core.Transaction) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sale recorded event")
		return nil
	}
	return s.amqpClient.PublishSaleEvent(ctx, amqp.NewSaleRecorded(tx.ID, tx.ItemName, tx.Total))
}

func (s *SalesService) publishDeleted(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sale deleted event")
		return nil
	}
	return s.amqpClient.PublishSaleEvent(ctx, amqp.NewSaleDeleted(id))
}

// Close closes the AMQP connection if one is configured.
func (s *SalesService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close sales service: %w", err)
		}
	}
	return nil
}
