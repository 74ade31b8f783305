package services

import (
	"context"
	"database/sql"
)

// Status reports component health.
type Status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// StatusService answers health probes.
type StatusService struct {
	db *sql.DB
}

func NewStatusService(db *sql.DB) *StatusService {
	return &StatusService{db: db}
}

// Get pings the database and reports overall health.
func (s *StatusService) Get(ctx context.Context) Status {
	st := Status{Status: "ok", Database: "ok"}
	if err := s.db.PingContext(ctx); err != nil {
		st.Status = "degraded"
		st.Database = err.Error()
	}
	return st
}
