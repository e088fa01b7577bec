// Package audit checks the assignment invariants with raw SQL and
// repairs complaints whose status lagged behind their assignment.
package audit

import (
	"context"
	"database/sql"
	"fmt"

	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/models"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Finding is one invariant violation.
type Finding struct {
	Check   string `json:"check"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

type check struct {
	name  string
	query string
	args  []interface{}
}

// Auditor runs raw SQL against the service database.
type Auditor struct {
	db  *sql.DB
	log *zap.Logger
}

func NewAuditor(db *sql.DB, log *zap.Logger) *Auditor {
	return &Auditor{db: db, log: log.Named("audit")}
}

// Open connects through lib/pq.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (a *Auditor) checks() []check {
	return []check{
		{
			name: "agent_over_capacity",
			query: `SELECT a.agent_id, COUNT(*)
				FROM assignments a JOIN complaints c ON c.id = a.complaint_id
				WHERE c.status <> $1
				GROUP BY a.agent_id HAVING COUNT(*) > $2`,
			args: []interface{}{string(models.StatusResolved), config.MaxActiveAssignments},
		},
		{
			name: "multiple_assignments",
			query: `SELECT complaint_id, COUNT(*) FROM assignments
				GROUP BY complaint_id HAVING COUNT(*) > 1`,
		},
		{
			name: "assigned_but_pending",
			query: `SELECT c.id, 1 FROM complaints c
				JOIN assignments a ON a.complaint_id = c.id
				WHERE c.status = $1`,
			args: []interface{}{string(models.StatusPending)},
		},
		{
			name: "progressed_without_assignment",
			query: `SELECT c.id, 1 FROM complaints c
				LEFT JOIN assignments a ON a.complaint_id = c.id
				WHERE c.status <> $1 AND a.id IS NULL`,
			args: []interface{}{string(models.StatusPending)},
		},
		{
			name: "duplicate_feedback",
			query: `SELECT complaint_id, COUNT(*) FROM feedback
				GROUP BY complaint_id HAVING COUNT(*) > 1`,
		},
		{
			name: "dangling_reference",
			query: `SELECT 'assignment:' || a.id, 1 FROM assignments a
					LEFT JOIN complaints c ON c.id = a.complaint_id WHERE c.id IS NULL
				UNION ALL
				SELECT 'message:' || m.id, 1 FROM messages m
					LEFT JOIN complaints c ON c.id = m.complaint_id WHERE c.id IS NULL
				UNION ALL
				SELECT 'complaint:' || c.id, 1 FROM complaints c
					LEFT JOIN users u ON u.id = c.user_id WHERE u.id IS NULL`,
		},
	}
}

// Run executes every check and returns the violations found.
func (a *Auditor) Run(ctx context.Context) ([]Finding, error) {
	var findings []Finding
	for _, c := range a.checks() {
		found, err := a.run(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", c.name, err)
		}
		if len(found) > 0 {
			a.log.Warn("invariant violated", zap.String("check", c.name), zap.Int("count", len(found)))
		}
		findings = append(findings, found...)
	}
	return findings, nil
}

func (a *Auditor) run(ctx context.Context, c check) ([]Finding, error) {
	rows, err := a.db.QueryContext(ctx, c.query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Finding
	for rows.Next() {
		var subject string
		var n int64
		if err := rows.Scan(&subject, &n); err != nil {
			return nil, err
		}
		detail := ""
		if n > 1 {
			detail = fmt.Sprintf("count=%d", n)
		}
		out = append(out, Finding{Check: c.name, Subject: subject, Detail: detail})
	}
	return out, rows.Err()
}

// Reconcile moves Pending complaints that already have an assignment to Assigned.
// Running it again changes nothing.
func (a *Auditor) Reconcile(ctx context.Context) (int64, error) {
	res, err := a.db.ExecContext(ctx,
		`UPDATE complaints SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE status = $2 AND id IN (SELECT complaint_id FROM assignments)`,
		string(models.StatusAssigned), string(models.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("reconcile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	a.log.Info("reconciled complaint statuses", zap.Int64("updated", n))
	return n, nil
}
