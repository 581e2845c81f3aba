// Package service orchestrates the statement ingestion pipeline:
// load, detect column roles, normalize fields, classify direction, and
// suggest categories from the caller's keyword rules.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/trackr/internal/domain/category"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/detector"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/normalizer"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/tabular"
	"github.com/FACorreiaa/trackr/pkg/observability"
)

// RuleSource provides a read-only snapshot of the caller's category rules
// for the duration of one ingestion call.
type RuleSource interface {
	ListRulesWithCategories(ctx context.Context, userID uuid.UUID) ([]category.RuleWithCategory, error)
}

// Transaction is the canonical output unit of the pipeline: a calendar
// date, a non-negative amount, an explicit direction, a cleaned
// description, and an optional suggested category.
type Transaction struct {
	Date         time.Time            `json:"-"`
	Amount       decimal.Decimal      `json:"amount"`
	Direction    normalizer.Direction `json:"transaction_type"`
	Description  string               `json:"description"`
	CategoryID   *uuid.UUID           `json:"category,omitempty"`
	CategoryName *string              `json:"category_name,omitempty"`
}

// DateString renders the transaction date in canonical ISO form.
func (t *Transaction) DateString() string {
	return t.Date.Format("2006-01-02")
}

// RejectionCounts aggregates row drops per pipeline stage. Rejections are
// counted, never fatal, as long as at least one row survives.
type RejectionCounts struct {
	BadDate          int `json:"bad_date"`
	BadAmount        int `json:"bad_amount"`
	EmptyDescription int `json:"empty_description"`
	Duplicate        int `json:"duplicate"`
}

// Total returns the number of rejected rows across all stages.
func (r RejectionCounts) Total() int {
	return r.BadDate + r.BadAmount + r.EmptyDescription + r.Duplicate
}

// Preview is the successful pipeline result: the resolved column mapping
// (for transparency and audit), the surviving transactions in source order,
// and the per-stage rejection counts.
type Preview struct {
	Mapping      detector.Mapping `json:"column_mapping"`
	Transactions []Transaction    `json:"transactions"`
	Rejected     RejectionCounts  `json:"rejected"`
}

// NoSurvivingRowsError means every row was rejected by normalization.
type NoSurvivingRowsError struct {
	Rejected RejectionCounts
}

func (e *NoSurvivingRowsError) Error() string {
	return fmt.Sprintf("no valid transactions found after cleaning (bad dates: %d, bad amounts: %d, empty descriptions: %d, duplicates: %d)",
		e.Rejected.BadDate, e.Rejected.BadAmount, e.Rejected.EmptyDescription, e.Rejected.Duplicate)
}

// Service runs the ingestion pipeline. Each invocation operates on its own
// freshly loaded table, so concurrent ingestions need no locking here.
type Service struct {
	rules  RuleSource
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a new ingestion service.
func New(rules RuleSource, logger *slog.Logger) *Service {
	return &Service{
		rules:  rules,
		logger: logger,
		tracer: otel.GetTracerProvider().Tracer("trackr/ingest"),
	}
}

// Ingest converts an uploaded statement file into normalized transactions.
// Overrides, when set and present in the table, bypass detection for that
// role. The returned transactions are independent of the service; ownership
// passes to the caller.
func (s *Service) Ingest(ctx context.Context, userID uuid.UUID, filename string, data []byte, overrides detector.Overrides) (*Preview, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.Ingest", trace.WithAttributes(
		attribute.String("file.name", filename),
		attribute.Int("file.size_bytes", len(data)),
	))
	defer span.End()

	ds, err := tabular.Load(data, filename)
	if err != nil {
		return nil, err
	}

	mapping, err := detector.Detect(ds, overrides)
	if err != nil {
		return nil, err
	}

	preview, err := s.transform(ds, mapping)
	if err != nil {
		return nil, err
	}

	if err := s.suggestCategories(ctx, userID, preview.Transactions); err != nil {
		// Suggestions are best-effort; the transactions themselves are fine.
		s.logger.Warn("failed to apply category rules during preview", "error", err)
	}

	span.SetAttributes(
		attribute.Int("rows.imported", len(preview.Transactions)),
		attribute.Int("rows.rejected", preview.Rejected.Total()),
	)
	observability.IngestRowsImported.Add(float64(len(preview.Transactions)))
	observability.IngestRowsRejected.WithLabelValues("date").Add(float64(preview.Rejected.BadDate))
	observability.IngestRowsRejected.WithLabelValues("amount").Add(float64(preview.Rejected.BadAmount))
	observability.IngestRowsRejected.WithLabelValues("description").Add(float64(preview.Rejected.EmptyDescription))
	observability.IngestRowsRejected.WithLabelValues("duplicate").Add(float64(preview.Rejected.Duplicate))

	s.logger.Info("statement ingested",
		"user_id", userID,
		"rows_imported", len(preview.Transactions),
		"rows_rejected", preview.Rejected.Total(),
	)

	return preview, nil
}

// transform runs the normalizers over the role-mapped columns. The date
// column is normalized as a whole first (the month-first versus day-first
// choice is column-wide); amounts and descriptions are cleaned per row.
func (s *Service) transform(ds *tabular.Dataset, mapping detector.Mapping) (*Preview, error) {
	dateCol, _ := mapping.ColumnFor(detector.RoleDate)
	amountCol, _ := mapping.ColumnFor(detector.RoleAmount)
	descCol, _ := mapping.ColumnFor(detector.RoleDescription)

	rawDates, _ := ds.Column(dateCol)
	rawAmounts, _ := ds.Column(amountCol)
	rawDescs, _ := ds.Column(descCol)

	dates := normalizer.NormalizeDates(rawDates)

	var rejected RejectionCounts
	seen := make(map[string]bool, len(ds.Rows))
	transactions := make([]Transaction, 0, len(ds.Rows))

	for i := range ds.Rows {
		key := rawDates[i] + "\x00" + rawAmounts[i] + "\x00" + rawDescs[i]
		if seen[key] {
			rejected.Duplicate++
			continue
		}
		seen[key] = true

		if !dates.Valid[i] {
			rejected.BadDate++
			continue
		}

		signed, err := normalizer.ParseAmount(rawAmounts[i])
		if err != nil {
			rejected.BadAmount++
			continue
		}

		description := normalizer.CleanDescription(rawDescs[i])
		if description == "" {
			rejected.EmptyDescription++
			continue
		}

		direction, magnitude := normalizer.Classify(signed)
		transactions = append(transactions, Transaction{
			Date:        dates.Values[i],
			Amount:      magnitude.Round(2),
			Direction:   direction,
			Description: description,
		})
	}

	if len(transactions) == 0 {
		return nil, &NoSurvivingRowsError{Rejected: rejected}
	}

	return &Preview{
		Mapping:      mapping,
		Transactions: transactions,
		Rejected:     rejected,
	}, nil
}

// suggestCategories pre-fills suggested categories on freshly ingested
// transactions from the user's keyword rules. Rules are read once and
// treated as a snapshot.
func (s *Service) suggestCategories(ctx context.Context, userID uuid.UUID, transactions []Transaction) error {
	if s.rules == nil {
		return nil
	}

	withCategories, err := s.rules.ListRulesWithCategories(ctx, userID)
	if err != nil {
		return err
	}
	if len(withCategories) == 0 {
		return nil
	}

	rules := make([]category.Rule, len(withCategories))
	names := make(map[uuid.UUID]string, len(withCategories))
	for i, rc := range withCategories {
		rules[i] = rc.Rule
		names[rc.Rule.ID] = rc.CategoryName
	}

	for i := range transactions {
		rule, ok := category.Match(transactions[i].Description, rules)
		if !ok {
			continue
		}
		categoryID := rule.CategoryID
		name := names[rule.ID]
		transactions[i].CategoryID = &categoryID
		transactions[i].CategoryName = &name
	}
	return nil
}
