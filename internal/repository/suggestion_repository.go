package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/domain"
)

// SuggestionRepository persists AI processing attempts. Records are append-only
// at the business level: rows are created and updated but never deleted.
type SuggestionRepository interface {
	Create(ctx context.Context, sug *domain.Suggestion) error
	Update(ctx context.Context, sug *domain.Suggestion) error
	AppendAudit(ctx context.Context, id string, entry domain.AuditEntry) error
	GetByID(ctx context.Context, id string) (*domain.Suggestion, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Suggestion, error)
	LatestByTicket(ctx context.Context, ticketID string) (*domain.Suggestion, error)
}

type suggestionRepository struct {
	pool *pgxpool.Pool
}

// NewSuggestionRepository instantiates repository.
func NewSuggestionRepository(pool *pgxpool.Pool) SuggestionRepository {
	return &suggestionRepository{pool: pool}
}

const suggestionColumns = `id, ticket_id, trace_id, type, status, snapshot, classification, knowledge_matches,
               drafted_response, confidence, auto_resolve, auto_resolve_reason, audit_trail, errors,
               processing_time_ms, created_at, updated_at`

func (r *suggestionRepository) Create(ctx context.Context, sug *domain.Suggestion) error {
	const query = `
        INSERT INTO suggestions (ticket_id, trace_id, type, status, snapshot, classification, knowledge_matches,
            drafted_response, confidence, auto_resolve, auto_resolve_reason, audit_trail, errors, processing_time_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		sug.TicketID,
		sug.TraceID,
		sug.Type,
		sug.Status,
		sug.Snapshot,
		sug.Classification,
		sug.KnowledgeMatches,
		sug.DraftedResponse,
		sug.Confidence,
		sug.AutoResolve,
		sug.AutoResolveReason,
		sug.AuditTrail,
		sug.Errors,
		sug.ProcessingTimeMS,
	).Scan(&sug.ID, &sug.CreatedAt, &sug.UpdatedAt)
}

func (r *suggestionRepository) Update(ctx context.Context, sug *domain.Suggestion) error {
	const query = `
        UPDATE suggestions SET status=$1, classification=$2, knowledge_matches=$3, drafted_response=$4,
            confidence=$5, auto_resolve=$6, auto_resolve_reason=$7, audit_trail=$8, errors=$9,
            processing_time_ms=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		sug.Status,
		sug.Classification,
		sug.KnowledgeMatches,
		sug.DraftedResponse,
		sug.Confidence,
		sug.AutoResolve,
		sug.AutoResolveReason,
		sug.AuditTrail,
		sug.Errors,
		sug.ProcessingTimeMS,
		sug.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AppendAudit pushes one entry onto the stored trail without rewriting the row.
// Used for progress entries during the wait loop and post-terminal annotations.
func (r *suggestionRepository) AppendAudit(ctx context.Context, id string, entry domain.AuditEntry) error {
	payload, err := json.Marshal([]domain.AuditEntry{entry})
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	const query = `
        UPDATE suggestions SET audit_trail = audit_trail || $1::jsonb, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, payload, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *suggestionRepository) GetByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	query := fmt.Sprintf(`SELECT %s FROM suggestions WHERE id=$1`, suggestionColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanSuggestion(row)
}

func (r *suggestionRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Suggestion, error) {
	query := fmt.Sprintf(`SELECT %s FROM suggestions WHERE ticket_id=$1 ORDER BY created_at DESC`, suggestionColumns)
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Suggestion
	for rows.Next() {
		sug, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sug)
	}
	return result, rows.Err()
}

func (r *suggestionRepository) LatestByTicket(ctx context.Context, ticketID string) (*domain.Suggestion, error) {
	query := fmt.Sprintf(`SELECT %s FROM suggestions WHERE ticket_id=$1 ORDER BY created_at DESC LIMIT 1`, suggestionColumns)
	row := r.pool.QueryRow(ctx, query, ticketID)
	return scanSuggestion(row)
}

func scanSuggestion(row pgx.Row) (*domain.Suggestion, error) {
	var sug domain.Suggestion
	if err := row.Scan(
		&sug.ID,
		&sug.TicketID,
		&sug.TraceID,
		&sug.Type,
		&sug.Status,
		&sug.Snapshot,
		&sug.Classification,
		&sug.KnowledgeMatches,
		&sug.DraftedResponse,
		&sug.Confidence,
		&sug.AutoResolve,
		&sug.AutoResolveReason,
		&sug.AuditTrail,
		&sug.Errors,
		&sug.ProcessingTimeMS,
		&sug.CreatedAt,
		&sug.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sug, nil
}
