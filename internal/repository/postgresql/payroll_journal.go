package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/jackc/pgx/v5"
)

// CreateJournalEntry stores a balanced entry. The unique reference constraint
// makes a second posting for the same cycle fail with ErrJournalAlreadyPosted.
func (r *payrollRepository) CreateJournalEntry(ctx context.Context, entry payroll.JournalEntry) (payroll.JournalEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO journal_entries (company_id, reference_type, reference_id, entry_date, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	created := entry
	created.Items = append([]payroll.JournalItem(nil), entry.Items...)
	err := q.QueryRow(ctx, query,
		entry.CompanyID, entry.ReferenceType, entry.ReferenceID, entry.EntryDate, entry.Description,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "uk_journal_reference") {
			return payroll.JournalEntry{}, payroll.ErrJournalAlreadyPosted
		}
		return payroll.JournalEntry{}, fmt.Errorf("failed to create journal entry: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range created.Items {
		created.Items[i].JournalEntryID = created.ID
		it := created.Items[i]
		batch.Queue(`
			INSERT INTO journal_items (journal_entry_id, account, debit, credit, position)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, created.ID, it.Account, it.Debit, it.Credit, i+1).QueryRow(func(row pgx.Row) error {
			return row.Scan(&created.Items[i].ID)
		})
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return payroll.JournalEntry{}, fmt.Errorf("failed to create journal items: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) GetJournalEntry(ctx context.Context, companyID string, refType payroll.ReferenceType, refID string) (payroll.JournalEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, reference_type, reference_id, entry_date, description, created_at
		FROM journal_entries
		WHERE company_id = $1 AND reference_type = $2 AND reference_id = $3
	`

	var e payroll.JournalEntry
	err := q.QueryRow(ctx, query, companyID, refType, refID).Scan(
		&e.ID, &e.CompanyID, &e.ReferenceType, &e.ReferenceID, &e.EntryDate, &e.Description, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.JournalEntry{}, payroll.ErrJournalEntryNotFound
		}
		return payroll.JournalEntry{}, fmt.Errorf("failed to get journal entry: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, journal_entry_id, account, debit, credit
		FROM journal_items
		WHERE journal_entry_id = $1
		ORDER BY position
	`, e.ID)
	if err != nil {
		return payroll.JournalEntry{}, fmt.Errorf("failed to get journal items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it payroll.JournalItem
		if err := rows.Scan(&it.ID, &it.JournalEntryID, &it.Account, &it.Debit, &it.Credit); err != nil {
			return payroll.JournalEntry{}, fmt.Errorf("failed to scan journal item: %w", err)
		}
		e.Items = append(e.Items, it)
	}

	return e, rows.Err()
}
