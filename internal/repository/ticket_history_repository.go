package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
)

// TicketHistoryRepository stores ticket-side audit entries. Entries are
// insert-only; nothing ever updates or deletes a history row.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
	ListByTicketOfTypes(ctx context.Context, ticketID string, types []domain.TicketChangeType) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

const historyColumns = `id, ticket_id, changed_by_type, changed_by_id, change_type, old_value, new_value, created_at`

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by_type, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.TicketID,
		history.ChangedByType,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	query := fmt.Sprintf(`SELECT %s FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC`, historyColumns)
	return r.queryHistory(ctx, query, ticketID)
}

// ListByTicketOfTypes returns only entries of the given change types, used to
// serve requesters the user-safe subset of the audit trail.
func (r *ticketHistoryRepository) ListByTicketOfTypes(ctx context.Context, ticketID string, types []domain.TicketChangeType) ([]domain.TicketHistory, error) {
	if len(types) == 0 {
		return r.ListByTicket(ctx, ticketID)
	}

	placeholders := make([]string, len(types))
	args := []any{ticketID}
	for i, changeType := range types {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, changeType)
	}
	query := fmt.Sprintf(`SELECT %s FROM ticket_history WHERE ticket_id=$1 AND change_type IN (%s) ORDER BY created_at ASC`,
		historyColumns, strings.Join(placeholders, ","))
	return r.queryHistory(ctx, query, args...)
}

func (r *ticketHistoryRepository) queryHistory(ctx context.Context, query string, args ...any) ([]domain.TicketHistory, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ChangedByType,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
