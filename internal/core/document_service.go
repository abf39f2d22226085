package core

import (
	"context"
	"fmt"
	"time"
)

const purchaseOrderDocType = "PO"

// DocumentNumberer assigns gapless, year-scoped document numbers.
// The sequence row is incremented inside the caller's Tx, so a rolled-back
// approval does not consume a number.
type DocumentNumberer interface {
	NextTx(ctx context.Context, tx Tx, docType string, at time.Time) (string, error)
}

type documentNumberer struct{}

func NewDocumentNumberer() DocumentNumberer {
	return documentNumberer{}
}

func (documentNumberer) NextTx(ctx context.Context, tx Tx, docType string, at time.Time) (string, error) {
	year := at.Year()
	n, err := tx.NextSequence(ctx, docType, year)
	if err != nil {
		return "", fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}
	return formatDocumentNumber(docType, year, n), nil
}

// formatDocumentNumber renders e.g. PO-2026-00042.
func formatDocumentNumber(docType string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%05d", docType, year, n)
}
