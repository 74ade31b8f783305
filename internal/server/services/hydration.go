package services

import (
	"context"
	"fmt"

	"github.com/civicdeck/backend/internal/catalog"
	"github.com/civicdeck/backend/internal/hydration"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/queue"
)

// rulesetProPublica names the rule applied to ProPublica member refreshes.
const rulesetProPublica = "propublica"

// civicSource is the slice of the civic data reader the service uses.
type civicSource interface {
	GetItem(ctx context.Context, table string, key map[string]any) (map[string]any, error)
}

// rawArchive is the slice of the S3 archive the service uses.
type rawArchive interface {
	PutJSON(ctx context.Context, source, id string, payload any) (string, error)
}

// taskScheduler is the slice of the hydration scheduler the service uses.
type taskScheduler interface {
	Schedule(ctx context.Context, records []map[string]any, timeKey, ruleset string, q queue.Enqueuer) ([]hydration.Result, error)
}

// HydrationService runs the nightly refresh cycle: it schedules stale
// officials for rehydration and processes the resulting tasks.
type HydrationService struct {
	officials *catalog.FedOfficials
	scheduler taskScheduler
	queue     queue.Enqueuer
	source    civicSource
	archive   rawArchive
	table     string
	log       logging.Logger
}

func NewHydrationService(officials *catalog.FedOfficials, scheduler taskScheduler, q queue.Enqueuer, source civicSource, archive rawArchive, table string, log logging.Logger) *HydrationService {
	return &HydrationService{
		officials: officials,
		scheduler: scheduler,
		queue:     q,
		source:    source,
		archive:   archive,
		table:     table,
		log:       log,
	}
}

// ScheduleFedOfficialRefresh walks every federal official and enqueues a
// refresh task for each one whose ProPublica payload has gone stale.
func (s *HydrationService) ScheduleFedOfficialRefresh(ctx context.Context) ([]hydration.Result, error) {
	records, err := s.officials.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fed officials: %w", err)
	}
	return s.scheduler.Schedule(ctx, records, "proPublicaUpdatedAt", rulesetProPublica, s.queue)
}

// ProcessProPublicaRefresh handles one refresh task: fetch the official's
// upstream payload, archive the raw response, and store it on the document.
// A failed archive write is logged but does not block the update.
func (s *HydrationService) ProcessProPublicaRefresh(ctx context.Context, task hydration.Task) error {
	item, err := s.source.GetItem(ctx, s.table, map[string]any{"id": task.ID})
	if err != nil {
		return fmt.Errorf("fetch official %s: %w", task.ID, err)
	}
	if item == nil {
		return fmt.Errorf("official %s not found in %s", task.ID, s.table)
	}

	if _, err := s.archive.PutJSON(ctx, rulesetProPublica, task.ID, item); err != nil {
		s.log.Error(ctx, "archive write failed", "id", task.ID, "error", err)
	}

	if err := s.officials.UpdateProPublicaData(ctx, task.ID, item); err != nil {
		return fmt.Errorf("store propublica data for %s: %w", task.ID, err)
	}

	s.log.Info(ctx, "official rehydrated", "id", task.ID)
	return nil
}
