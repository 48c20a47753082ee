package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *SQLStore) SaveObservation(ctx context.Context, o Observation) (Observation, error) {
	o = prepareObservation(o, s.now())
	_, err := s.db.ExecContext(ctx, `INSERT INTO observations (id,experiment_id,step,observation,value,user_id,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.ExperimentID, o.Step, o.Observation, o.Value, o.UserID, o.Timestamp.UnixMilli())
	if err != nil {
		return Observation{}, fmt.Errorf("insert observation: %w", err)
	}
	return o, nil
}

func (s *SQLStore) ListObservations(ctx context.Context, f ObservationFilter) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,experiment_id,step,observation,value,user_id,created_at
		FROM observations
		WHERE user_id=$1 AND ($2=0 OR experiment_id=$2)
		ORDER BY created_at, step`, userOr(f.UserID), f.ExperimentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Observation{}
	for rows.Next() {
		var o Observation
		var created int64
		if err := rows.Scan(&o.ID, &o.ExperimentID, &o.Step, &o.Observation, &o.Value, &o.UserID, &created); err != nil {
			return nil, err
		}
		o.Timestamp = time.UnixMilli(created).UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveQuizResult(ctx context.Context, r QuizResult) (QuizResult, error) {
	r = prepareResult(r, s.now())
	buf, err := json.Marshal(r.Answers)
	if err != nil {
		return QuizResult{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quiz_results (id,experiment_id,user_id,score,passed,earned,max_points,reason,answers_json,completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.ExperimentID, r.UserID, r.Score, r.Passed, r.Earned, r.Max, r.Reason, string(buf), r.CompletedAt.UnixMilli())
	if err != nil {
		return QuizResult{}, fmt.Errorf("insert quiz result: %w", err)
	}
	return r, nil
}

func (s *SQLStore) ListQuizResults(ctx context.Context, userID string) ([]QuizResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,experiment_id,user_id,score,passed,earned,max_points,reason,answers_json,completed_at
		FROM quiz_results WHERE user_id=$1 ORDER BY completed_at`, userOr(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []QuizResult{}
	for rows.Next() {
		var r QuizResult
		var ajson string
		var completed int64
		if err := rows.Scan(&r.ID, &r.ExperimentID, &r.UserID, &r.Score, &r.Passed, &r.Earned, &r.Max, &r.Reason, &ajson, &completed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ajson), &r.Answers); err != nil {
			r.Answers = map[string]interface{}{}
		}
		r.CompletedAt = time.UnixMilli(completed).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertProgress(ctx context.Context, p ExperimentProgress) (ExperimentProgress, error) {
	p = prepareProgress(p, s.now())
	var completed sql.NullInt64
	if p.CompletedAt != nil {
		completed = sql.NullInt64{Int64: p.CompletedAt.UnixMilli(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO progress (user_id,experiment_id,status,current_step,total_steps,completed_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id,experiment_id) DO UPDATE SET status=EXCLUDED.status, current_step=EXCLUDED.current_step,
			total_steps=EXCLUDED.total_steps, completed_at=EXCLUDED.completed_at, updated_at=EXCLUDED.updated_at`,
		p.UserID, p.ExperimentID, p.Status, p.CurrentStep, p.TotalSteps, completed, p.UpdatedAt.UnixMilli())
	if err != nil {
		return ExperimentProgress{}, fmt.Errorf("upsert progress: %w", err)
	}
	return p, nil
}

func (s *SQLStore) ListProgress(ctx context.Context, userID string) ([]ExperimentProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id,experiment_id,status,current_step,total_steps,completed_at,updated_at
		FROM progress WHERE user_id=$1 ORDER BY experiment_id`, userOr(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ExperimentProgress{}
	for rows.Next() {
		var p ExperimentProgress
		var completed sql.NullInt64
		var updated int64
		if err := rows.Scan(&p.UserID, &p.ExperimentID, &p.Status, &p.CurrentStep, &p.TotalSteps, &completed, &updated); err != nil {
			return nil, err
		}
		if completed.Valid {
			t := time.UnixMilli(completed.Int64).UTC()
			p.CompletedAt = &t
		}
		p.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
