package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/targeting-cli/internal/db"
	"github.com/sells-group/targeting-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot-path store operations.
var preparedStatements = map[string]string{
	"insert_session":        `INSERT INTO sessions (id, url, competitor_urls, keywords, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"update_session_status": `UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`,
	"get_session":           `SELECT id, url, competitor_urls, keywords, status, error, result, created_at, updated_at FROM sessions WHERE id = $1`,
	"insert_analysis":       `INSERT INTO website_analyses (id, session_id, url, profile, technical, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_analysis":          `SELECT id, session_id, url, profile, technical, created_at FROM website_analyses WHERE session_id = $1 ORDER BY created_at DESC LIMIT 1`,
	"insert_recommendation": `INSERT INTO recommendations (id, session_id, platform, data, confidence, explanations, source, token_usage, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Tests use it with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	url             TEXT NOT NULL,
	competitor_urls JSONB NOT NULL DEFAULT '[]',
	keywords        JSONB NOT NULL DEFAULT '[]',
	status          TEXT NOT NULL DEFAULT 'pending',
	error           TEXT,
	result          JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS website_analyses (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	url        TEXT NOT NULL,
	profile    JSONB NOT NULL,
	technical  JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS recommendations (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	session_id   TEXT NOT NULL REFERENCES sessions(id),
	platform     TEXT NOT NULL,
	data         JSONB NOT NULL,
	confidence   JSONB,
	explanations JSONB,
	source       TEXT NOT NULL,
	token_usage  JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS competitor_analyses (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	url        TEXT NOT NULL,
	analysis   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
CREATE INDEX IF NOT EXISTS idx_sessions_url ON sessions(url);
CREATE INDEX IF NOT EXISTS idx_analyses_session_id ON website_analyses(session_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_session_platform ON recommendations(session_id, platform);
CREATE INDEX IF NOT EXISTS idx_competitor_analyses_session_id ON competitor_analyses(session_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, url string, competitorURLs, keywords []string) (*model.AnalysisSession, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	competitorsJSON, err := marshalStrings(competitorURLs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal competitor urls")
	}
	keywordsJSON, err := marshalStrings(keywords)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal keywords")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, url, competitor_urls, keywords, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, url, []byte(competitorsJSON), []byte(keywordsJSON), string(model.SessionStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert session")
	}

	return &model.AnalysisSession{
		ID:             id,
		URL:            url,
		CompetitorURLs: competitorURLs,
		Keywords:       keywords,
		Status:         model.SessionStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*model.AnalysisSession, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, url, competitor_urls, keywords, status, error, result, created_at, updated_at FROM sessions WHERE id = $1`,
		sessionID,
	)
	return scanPgSession(row)
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.AnalysisSession, error) {
	query := `SELECT id, url, competitor_urls, keywords, status, error, result, created_at, updated_at FROM sessions WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.URL != "" {
		query += ` AND url = ` + arg(filter.URL)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []model.AnalysisSession
	for rows.Next() {
		sess, err := scanPgSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: list sessions iterate")
}

func (s *PostgresStore) UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update session status %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "session %s", sessionID)
	}
	return nil
}

func (s *PostgresStore) FailSession(ctx context.Context, sessionID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.SessionStatusFailed), errMsg, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail session %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "session %s", sessionID)
	}
	return nil
}

func (s *PostgresStore) CompleteSession(ctx context.Context, sessionID string, result *model.SessionResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.SessionStatusCompleted), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete session %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "session %s", sessionID)
	}
	return nil
}

func (s *PostgresStore) CreateAnalysis(ctx context.Context, analysis *model.WebsiteAnalysis) error {
	profileJSON, err := json.Marshal(analysis.Profile)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile")
	}
	technicalJSON, err := json.Marshal(analysis.Technical)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal technical")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO website_analyses (id, session_id, url, profile, technical, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		analysis.ID, analysis.SessionID, analysis.URL, profileJSON, technicalJSON, analysis.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert analysis")
}

func (s *PostgresStore) GetAnalysisBySession(ctx context.Context, sessionID string) (*model.WebsiteAnalysis, error) {
	var a model.WebsiteAnalysis
	var profileJSON, technicalJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, session_id, url, profile, technical, created_at FROM website_analyses WHERE session_id = $1 ORDER BY created_at DESC LIMIT 1`,
		sessionID,
	).Scan(&a.ID, &a.SessionID, &a.URL, &profileJSON, &technicalJSON, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get analysis")
	}
	if err := json.Unmarshal(profileJSON, &a.Profile); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile")
	}
	if err := json.Unmarshal(technicalJSON, &a.Technical); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal technical")
	}
	return &a, nil
}

func (s *PostgresStore) CreateRecommendation(ctx context.Context, rec *model.TargetingRecommendation) error {
	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal targeting data")
	}
	var confidenceJSON []byte
	if rec.Confidence != nil {
		confidenceJSON, err = json.Marshal(rec.Confidence)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal confidence")
		}
	}
	explanationsJSON, err := marshalStrings(rec.Explanations)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal explanations")
	}
	usageJSON, err := json.Marshal(rec.TokenUsage)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal token usage")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO recommendations (id, session_id, platform, data, confidence, explanations, source, token_usage, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.SessionID, string(rec.Platform), dataJSON, confidenceJSON, []byte(explanationsJSON),
		rec.Source, usageJSON, rec.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert recommendation")
}

func (s *PostgresStore) ListRecommendations(ctx context.Context, sessionID string) ([]model.TargetingRecommendation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, platform, data, confidence, explanations, source, token_usage, created_at FROM recommendations WHERE session_id = $1 ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recommendations")
	}
	defer rows.Close()

	var recs []model.TargetingRecommendation
	for rows.Next() {
		var r model.TargetingRecommendation
		var dataJSON, confidenceJSON, explanationsJSON, usageJSON []byte

		err := rows.Scan(&r.ID, &r.SessionID, &r.Platform, &dataJSON, &confidenceJSON, &explanationsJSON,
			&r.Source, &usageJSON, &r.CreatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan recommendation")
		}
		if err := json.Unmarshal(dataJSON, &r.Data); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal targeting data")
		}
		if len(confidenceJSON) > 0 {
			r.Confidence = &model.ConfidenceScores{}
			if err := json.Unmarshal(confidenceJSON, r.Confidence); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal confidence")
			}
		}
		if len(explanationsJSON) > 0 {
			if err := json.Unmarshal(explanationsJSON, &r.Explanations); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal explanations")
			}
		}
		if err := json.Unmarshal(usageJSON, &r.TokenUsage); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal token usage")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list recommendations iterate")
}

func (s *PostgresStore) CreateCompetitorAnalysis(ctx context.Context, ca *model.CompetitorAnalysis) error {
	analysisJSON, err := json.Marshal(ca)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal competitor analysis")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO competitor_analyses (id, session_id, url, analysis, created_at) VALUES ($1, $2, $3, $4, $5)`,
		ca.ID, ca.SessionID, ca.URL, analysisJSON, ca.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert competitor analysis")
}

func (s *PostgresStore) ListCompetitorAnalyses(ctx context.Context, sessionID string) ([]model.CompetitorAnalysis, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT analysis FROM competitor_analyses WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list competitor analyses")
	}
	defer rows.Close()

	var analyses []model.CompetitorAnalysis
	for rows.Next() {
		var analysisJSON []byte
		if err := rows.Scan(&analysisJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan competitor analysis")
		}
		var ca model.CompetitorAnalysis
		if err := json.Unmarshal(analysisJSON, &ca); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal competitor analysis")
		}
		analyses = append(analyses, ca)
	}
	return analyses, eris.Wrap(rows.Err(), "postgres: list competitor analyses iterate")
}

// helpers

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func scanPgSession(row pgx.Row) (*model.AnalysisSession, error) {
	var sess model.AnalysisSession
	var competitorsJSON, keywordsJSON []byte
	var errMsg, resultJSON []byte

	err := row.Scan(&sess.ID, &sess.URL, &competitorsJSON, &keywordsJSON, &sess.Status,
		&errMsg, &resultJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "session")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan session")
	}

	if err := json.Unmarshal(competitorsJSON, &sess.CompetitorURLs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal competitor urls")
	}
	if err := json.Unmarshal(keywordsJSON, &sess.Keywords); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal keywords")
	}
	sess.Error = string(errMsg)
	if len(resultJSON) > 0 {
		sess.Result = &model.SessionResult{}
		if err := json.Unmarshal(resultJSON, sess.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &sess, nil
}
