package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/targeting-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	url             TEXT NOT NULL,
	competitor_urls TEXT NOT NULL DEFAULT '[]',
	keywords        TEXT NOT NULL DEFAULT '[]',
	status          TEXT NOT NULL DEFAULT 'pending',
	error           TEXT,
	result          TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS website_analyses (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	url        TEXT NOT NULL,
	profile    TEXT NOT NULL,
	technical  TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS recommendations (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL REFERENCES sessions(id),
	platform     TEXT NOT NULL,
	data         TEXT NOT NULL,
	confidence   TEXT,
	explanations TEXT,
	source       TEXT NOT NULL,
	token_usage  TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS competitor_analyses (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	url        TEXT NOT NULL,
	analysis   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
CREATE INDEX IF NOT EXISTS idx_sessions_url ON sessions(url);
CREATE INDEX IF NOT EXISTS idx_analyses_session_id ON website_analyses(session_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_session_platform ON recommendations(session_id, platform);
CREATE INDEX IF NOT EXISTS idx_competitor_analyses_session_id ON competitor_analyses(session_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, url string, competitorURLs, keywords []string) (*model.AnalysisSession, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	competitorsJSON, err := marshalStrings(competitorURLs)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal competitor urls")
	}
	keywordsJSON, err := marshalStrings(keywords)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal keywords")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, url, competitor_urls, keywords, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, url, competitorsJSON, keywordsJSON, string(model.SessionStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert session")
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

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*model.AnalysisSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, competitor_urls, keywords, status, error, result, created_at, updated_at
		 FROM sessions WHERE id = ?`,
		sessionID,
	)
	return scanSession(row)
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.AnalysisSession, error) {
	query := `SELECT id, url, competitor_urls, keywords, status, error, result, created_at, updated_at
	          FROM sessions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.URL != "" {
		query += ` AND url = ?`
		args = append(args, filter.URL)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []model.AnalysisSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: list sessions iterate")
}

func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update session status %s", sessionID)
	}
	return checkRowsAffected(res, "session", sessionID)
}

func (s *SQLiteStore) FailSession(ctx context.Context, sessionID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.SessionStatusFailed), errMsg, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail session %s", sessionID)
	}
	return checkRowsAffected(res, "session", sessionID)
}

func (s *SQLiteStore) CompleteSession(ctx context.Context, sessionID string, result *model.SessionResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.SessionStatusCompleted), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete session %s", sessionID)
	}
	return checkRowsAffected(res, "session", sessionID)
}

func (s *SQLiteStore) CreateAnalysis(ctx context.Context, analysis *model.WebsiteAnalysis) error {
	profileJSON, err := json.Marshal(analysis.Profile)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}
	technicalJSON, err := json.Marshal(analysis.Technical)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal technical")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO website_analyses (id, session_id, url, profile, technical, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		analysis.ID, analysis.SessionID, analysis.URL, string(profileJSON), string(technicalJSON), analysis.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert analysis")
}

func (s *SQLiteStore) GetAnalysisBySession(ctx context.Context, sessionID string) (*model.WebsiteAnalysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, url, profile, technical, created_at
		 FROM website_analyses WHERE session_id = ?
		 ORDER BY created_at DESC LIMIT 1`,
		sessionID,
	)

	var a model.WebsiteAnalysis
	var profileJSON, technicalJSON string
	err := row.Scan(&a.ID, &a.SessionID, &a.URL, &profileJSON, &technicalJSON, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get analysis")
	}
	if err := json.Unmarshal([]byte(profileJSON), &a.Profile); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	if err := json.Unmarshal([]byte(technicalJSON), &a.Technical); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal technical")
	}
	return &a, nil
}

func (s *SQLiteStore) CreateRecommendation(ctx context.Context, rec *model.TargetingRecommendation) error {
	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal targeting data")
	}
	confidenceJSON, err := marshalNullable(rec.Confidence)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal confidence")
	}
	explanationsJSON, err := marshalStrings(rec.Explanations)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal explanations")
	}
	usageJSON, err := json.Marshal(rec.TokenUsage)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal token usage")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recommendations (id, session_id, platform, data, confidence, explanations, source, token_usage, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, string(rec.Platform), string(dataJSON), nullString(confidenceJSON), explanationsJSON,
		rec.Source, string(usageJSON), rec.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert recommendation")
}

func (s *SQLiteStore) ListRecommendations(ctx context.Context, sessionID string) ([]model.TargetingRecommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, platform, data, confidence, explanations, source, token_usage, created_at
		 FROM recommendations WHERE session_id = ?
		 ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recommendations")
	}
	defer rows.Close()

	var recs []model.TargetingRecommendation
	for rows.Next() {
		var r model.TargetingRecommendation
		var dataJSON, usageJSON string
		var confidenceJSON, explanationsJSON sql.NullString

		err := rows.Scan(&r.ID, &r.SessionID, &r.Platform, &dataJSON, &confidenceJSON, &explanationsJSON,
			&r.Source, &usageJSON, &r.CreatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recommendation")
		}
		if err := json.Unmarshal([]byte(dataJSON), &r.Data); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal targeting data")
		}
		if confidenceJSON.Valid && confidenceJSON.String != "" {
			r.Confidence = &model.ConfidenceScores{}
			if err := json.Unmarshal([]byte(confidenceJSON.String), r.Confidence); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal confidence")
			}
		}
		if explanationsJSON.Valid && explanationsJSON.String != "" {
			if err := json.Unmarshal([]byte(explanationsJSON.String), &r.Explanations); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal explanations")
			}
		}
		if err := json.Unmarshal([]byte(usageJSON), &r.TokenUsage); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal token usage")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list recommendations iterate")
}

func (s *SQLiteStore) CreateCompetitorAnalysis(ctx context.Context, ca *model.CompetitorAnalysis) error {
	analysisJSON, err := json.Marshal(ca)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal competitor analysis")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO competitor_analyses (id, session_id, url, analysis, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ca.ID, ca.SessionID, ca.URL, string(analysisJSON), ca.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert competitor analysis")
}

func (s *SQLiteStore) ListCompetitorAnalyses(ctx context.Context, sessionID string) ([]model.CompetitorAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT analysis FROM competitor_analyses WHERE session_id = ? ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list competitor analyses")
	}
	defer rows.Close()

	var analyses []model.CompetitorAnalysis
	for rows.Next() {
		var analysisJSON string
		if err := rows.Scan(&analysisJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan competitor analysis")
		}
		var ca model.CompetitorAnalysis
		if err := json.Unmarshal([]byte(analysisJSON), &ca); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal competitor analysis")
		}
		analyses = append(analyses, ca)
	}
	return analyses, eris.Wrap(rows.Err(), "sqlite: list competitor analyses iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*model.AnalysisSession, error) {
	var sess model.AnalysisSession
	var competitorsJSON, keywordsJSON string
	var errMsg, resultJSON sql.NullString

	err := row.Scan(&sess.ID, &sess.URL, &competitorsJSON, &keywordsJSON, &sess.Status,
		&errMsg, &resultJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "session")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan session")
	}

	if err := json.Unmarshal([]byte(competitorsJSON), &sess.CompetitorURLs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal competitor urls")
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &sess.Keywords); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal keywords")
	}
	if errMsg.Valid {
		sess.Error = errMsg.String
	}
	if resultJSON.Valid && resultJSON.String != "" {
		sess.Result = &model.SessionResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), sess.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &sess, nil
}

// marshalStrings renders a string slice as JSON, mapping nil to "[]" so the
// column is always valid JSON.
func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	return string(b), err
}

// nullString maps the empty string to a NULL column value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// marshalNullable renders the optional confidence block as JSON, mapping nil
// to the empty string for a NULL column.
func marshalNullable(scores *model.ConfidenceScores) (string, error) {
	if scores == nil {
		return "", nil
	}
	b, err := json.Marshal(scores)
	return string(b), err
}
