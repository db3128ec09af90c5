// Package analytics aggregates run, token, call and tool-usage counters for
// the reporting endpoints. All queries are scoped to the caller's
// organisation.
package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAgentNotFound = errors.New("agent not found")

type Helper struct {
	db *pgxpool.Pool
}

func NewHelper(db *pgxpool.Pool) Helper {
	return Helper{db: db}
}

type RunCompletedMetrics struct {
	TotalTokens   int64 `json:"total_tokens"`
	TotalCalls    int64 `json:"total_calls"`
	RunsCompleted int64 `json:"runs_completed"`
}

func (h Helper) RunCompletedMetrics(ctx context.Context, organisationID uuid.UUID) (RunCompletedMetrics, error) {
	var m RunCompletedMetrics
	err := h.db.QueryRow(ctx, `
		select coalesce(sum(r.tokens_consumed), 0),
		       coalesce(sum(r.calls), 0),
		       count(*) filter (where r.status = 'COMPLETED')
		from agent_runs r
		join agents a on a.id = r.agent_id
		where a.organisation_id = $1
	`, organisationID).Scan(&m.TotalTokens, &m.TotalCalls, &m.RunsCompleted)
	if err != nil {
		return RunCompletedMetrics{}, err
	}
	return m, nil
}

type AgentDetail struct {
	AgentID       string `json:"agent_id"`
	Name          string `json:"name"`
	Model         string `json:"model"`
	TotalTokens   int64  `json:"total_tokens"`
	TotalCalls    int64  `json:"total_calls"`
	RunsCompleted int64  `json:"runs_completed"`
}

type ModelMetric struct {
	Model  string `json:"model"`
	Agents int64  `json:"agents"`
}

type AgentData struct {
	AgentDetails []AgentDetail `json:"agent_details"`
	ModelInfo    []ModelMetric `json:"model_info"`
}

func (h Helper) AgentData(ctx context.Context, organisationID uuid.UUID) (AgentData, error) {
	out := AgentData{
		AgentDetails: []AgentDetail{},
		ModelInfo:    []ModelMetric{},
	}

	rows, err := h.db.Query(ctx, `
		select a.id, a.name, a.model,
		       coalesce(sum(r.tokens_consumed), 0),
		       coalesce(sum(r.calls), 0),
		       count(r.id) filter (where r.status = 'COMPLETED')
		from agents a
		left join agent_runs r on r.agent_id = a.id
		where a.organisation_id = $1
		group by a.id, a.name, a.model
		order by a.created_at asc
	`, organisationID)
	if err != nil {
		return AgentData{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id uuid.UUID
			d  AgentDetail
		)
		if err := rows.Scan(&id, &d.Name, &d.Model, &d.TotalTokens, &d.TotalCalls, &d.RunsCompleted); err != nil {
			return AgentData{}, err
		}
		d.AgentID = id.String()
		out.AgentDetails = append(out.AgentDetails, d)
	}
	if err := rows.Err(); err != nil {
		return AgentData{}, err
	}

	modelRows, err := h.db.Query(ctx, `
		select model, count(*)
		from agents
		where organisation_id = $1
		group by model
		order by count(*) desc, model asc
	`, organisationID)
	if err != nil {
		return AgentData{}, err
	}
	defer modelRows.Close()

	for modelRows.Next() {
		var m ModelMetric
		if err := modelRows.Scan(&m.Model, &m.Agents); err != nil {
			return AgentData{}, err
		}
		out.ModelInfo = append(out.ModelInfo, m)
	}
	return out, modelRows.Err()
}

type RunSummary struct {
	Name           string `json:"name"`
	Status         string `json:"status"`
	TokensConsumed int64  `json:"tokens_consumed"`
	Calls          int64  `json:"calls"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func (h Helper) AgentRuns(ctx context.Context, organisationID, agentID uuid.UUID) ([]RunSummary, error) {
	var exists bool
	err := h.db.QueryRow(ctx, `
		select true from agents where id = $1 and organisation_id = $2
	`, agentID, organisationID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Query(ctx, `
		select name, status, tokens_consumed, calls, created_at, updated_at
		from agent_runs
		where agent_id = $1
		order by created_at desc
	`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RunSummary{}
	for rows.Next() {
		var (
			r                    RunSummary
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&r.Name, &r.Status, &r.TokensConsumed, &r.Calls, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		r.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
		out = append(out, r)
	}
	return out, rows.Err()
}

type ActiveRun struct {
	Name      string `json:"name"`
	AgentName string `json:"agent_name"`
	CreatedAt string `json:"created_at"`
}

func (h Helper) ActiveRuns(ctx context.Context, organisationID uuid.UUID) ([]ActiveRun, error) {
	rows, err := h.db.Query(ctx, `
		select r.name, a.name, r.created_at
		from agent_runs r
		join agents a on a.id = r.agent_id
		where a.organisation_id = $1 and r.status = 'RUNNING'
		order by r.created_at desc
	`, organisationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ActiveRun{}
	for rows.Next() {
		var (
			r         ActiveRun
			createdAt time.Time
		)
		if err := rows.Scan(&r.Name, &r.AgentName, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		out = append(out, r)
	}
	return out, rows.Err()
}

type ToolUsage struct {
	ToolName     string `json:"tool_name"`
	UniqueAgents int64  `json:"unique_agents"`
	TotalUsage   int64  `json:"total_usage"`
}

func (h Helper) ToolUsage(ctx context.Context, organisationID uuid.UUID) ([]ToolUsage, error) {
	rows, err := h.db.Query(ctx, `
		select e.tool_name, count(distinct e.agent_id), count(*)
		from tool_usage_events e
		join agents a on a.id = e.agent_id
		where a.organisation_id = $1
		group by e.tool_name
		order by count(*) desc, e.tool_name asc
	`, organisationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ToolUsage{}
	for rows.Next() {
		var t ToolUsage
		if err := rows.Scan(&t.ToolName, &t.UniqueAgents, &t.TotalUsage); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
