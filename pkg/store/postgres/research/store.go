package research

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/store/research"
)

const (
	columns = `session_id, calculator_data, survey_data, metadata, completion_status, created_at, updated_at`

	upsertQuery = `
		INSERT INTO research_records (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			calculator_data   = EXCLUDED.calculator_data,
			survey_data       = EXCLUDED.survey_data,
			metadata          = research_records.metadata || EXCLUDED.metadata,
			completion_status = research_records.completion_status || EXCLUDED.completion_status,
			updated_at        = EXCLUDED.updated_at
		RETURNING ` + columns

	getQuery  = `SELECT ` + columns + ` FROM research_records WHERE session_id = $1`
	listQuery = `SELECT ` + columns + ` FROM research_records ORDER BY created_at ASC`
)

type researchStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) (research.Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &researchStore{
		db:  db,
		now: time.Now,
	}, nil
}

// Upsert relies on the primary key on session_id; jsonb || gives the shallow
// merge for metadata and completion status.
func (s *researchStore) Upsert(ctx context.Context, update store.ResearchUpdate) (*store.ResearchRecord, error) {
	if update.SessionID == "" {
		return nil, research.ErrMissingSessionID
	}

	args := make([]interface{}, 0, 6)
	args = append(args, update.SessionID)
	for _, v := range []interface{}{
		orEmpty(update.CalculatorData),
		orEmpty(update.SurveyData),
		orEmpty(update.Metadata),
		orEmpty(update.CompletionStatus),
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal research data: %w", err)
		}
		args = append(args, raw)
	}
	args = append(args, s.now().UTC())

	rec, err := scanRecord(s.db.QueryRowContext(ctx, upsertQuery, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert session %s: %w", update.SessionID, err)
	}
	return rec, nil
}

func (s *researchStore) Get(ctx context.Context, sessionID string) (*store.ResearchRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, getQuery, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, research.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return rec, nil
}

func (s *researchStore) List(ctx context.Context) ([]store.ResearchRecord, error) {
	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("query research records: %w", err)
	}
	defer rows.Close()

	records := make([]store.ResearchRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate research records: %w", err)
	}
	return records, nil
}

func (s *researchStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *researchStore) Close(context.Context) error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*store.ResearchRecord, error) {
	var (
		rec                                    store.ResearchRecord
		calcRaw, surveyRaw, metaRaw, statusRaw []byte
	)
	if err := row.Scan(&rec.SessionID, &calcRaw, &surveyRaw, &metaRaw, &statusRaw, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	targets := []struct {
		raw []byte
		dst interface{}
	}{
		{calcRaw, &rec.CalculatorData},
		{surveyRaw, &rec.SurveyData},
		{metaRaw, &rec.Metadata},
		{statusRaw, &rec.CompletionStatus},
	}
	for _, t := range targets {
		if len(t.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(t.raw, t.dst); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", rec.SessionID, err)
		}
	}

	if rec.CalculatorData == nil {
		rec.CalculatorData = map[string]store.CalculatorEntry{}
	}
	if rec.SurveyData == nil {
		rec.SurveyData = map[string]store.SurveyEntry{}
	}
	if rec.Metadata == nil {
		rec.Metadata = store.Answers{}
	}
	if rec.CompletionStatus == nil {
		rec.CompletionStatus = store.Answers{}
	}
	return &rec, nil
}

func orEmpty[M ~map[string]V, V any](m M) M {
	if m == nil {
		return M{}
	}
	return m
}
