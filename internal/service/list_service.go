package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"distribution-service/internal/distribution"
	appErrors "distribution-service/internal/errors"
	"distribution-service/internal/events"
	"distribution-service/internal/ingest"
	"distribution-service/internal/model"
	"distribution-service/internal/repository"
	"distribution-service/pkg/logger"
	"distribution-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Transactor is satisfied by *gorm.DB
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// ListService runs the upload pipeline and the list queries around it
type ListService struct {
	DB        Transactor
	AgentRepo repository.AgentRepositoryInterface
	ListRepo  repository.ListItemRepositoryInterface
	Publisher events.Publisher

	// TempDir receives the spooled upload; empty means os.TempDir()
	TempDir string
	// Atomic wraps the agent read and the batch insert in one transaction.
	// Without it two concurrent uploads may both start their round-robin at
	// the first agent.
	Atomic bool
	Now    func() time.Time
}

// UploadResult describes one ingested file
type UploadResult struct {
	OriginalFileName string
	UploadedAt       time.Time
	TotalItems       int
	DroppedRows      int
	AgentsCount      int
	Distribution     []distribution.AgentDistribution
}

// Summary is the per-agent count over everything persisted
type Summary struct {
	TotalItems   int64                       `json:"totalItems"`
	AgentsCount  int                         `json:"agentsCount"`
	Distribution []distribution.AgentSummary `json:"distribution"`
}

// IngestUpload spools src to a temporary file, runs the pipeline on it and
// removes the file again whatever the outcome.
func (s *ListService) IngestUpload(ctx context.Context, src io.Reader, fileName string) (*UploadResult, error) {
	format, ok := ingest.FormatFromFilename(fileName)
	if !ok {
		return nil, appErrors.NewParseError(filepath.Ext(fileName), "unsupported file type, only CSV, XLSX and XLS files are allowed", nil)
	}

	tmp, err := os.CreateTemp(s.TempDir, "upload-*"+filepath.Ext(fileName))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.FromContext(ctx).Warn("Failed to remove temp upload", zap.String("path", tmp.Name()), zap.Error(err))
		}
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	return s.Ingest(ctx, tmp, fileName, format)
}

// Ingest parses, normalizes, distributes and persists one file. Any error
// leaves nothing persisted.
func (s *ListService) Ingest(ctx context.Context, src io.ReadSeeker, fileName string, format ingest.Format) (result *UploadResult, err error) {
	log := logger.FromContext(ctx)
	started := time.Now()
	defer func() {
		prometheus.RecordUpload(string(format), uploadOutcome(err), started)
	}()

	rr, err := ingest.NewReader(src, format)
	if err != nil {
		return nil, err
	}
	records, dropped, err := ingest.NormalizeAll(rr)
	if err != nil {
		return nil, err
	}
	prometheus.RecordRows(string(format), len(records)+dropped, dropped)

	if len(records) == 0 {
		return nil, appErrors.NewValidationError("No valid data found in the file")
	}

	uploadedAt := s.now()
	var agents []model.Agent
	var saved []model.ListItem
	persist := func(agentRepo repository.AgentRepositoryInterface, listRepo repository.ListItemRepositoryInterface) error {
		var err error
		agents, err = agentRepo.List(ctx)
		if err != nil {
			return err
		}
		assignments, err := distribution.Distribute(records, agents)
		if err != nil {
			return err
		}
		saved, err = listRepo.CreateBatch(ctx, distribution.ToListItems(assignments, fileName, uploadedAt))
		return err
	}

	if s.Atomic && s.DB != nil {
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			return persist(s.AgentRepo.WithTx(tx), s.ListRepo.WithTx(tx))
		})
	} else {
		err = persist(s.AgentRepo, s.ListRepo)
	}
	if err != nil {
		return nil, err
	}
	prometheus.ItemsDistributedCounter.Add(float64(len(saved)))
	attachAgents(saved, agents)

	result = &UploadResult{
		OriginalFileName: fileName,
		UploadedAt:       uploadedAt,
		TotalItems:       len(saved),
		DroppedRows:      dropped,
		AgentsCount:      len(agents),
		Distribution:     distribution.Breakdown(agents, saved),
	}

	log.Info("File distributed",
		zap.String("file", fileName),
		zap.String("format", string(format)),
		zap.Int("items", result.TotalItems),
		zap.Int("dropped_rows", dropped),
		zap.Int("agents", result.AgentsCount))

	s.publish(ctx, result)
	return result, nil
}

func (s *ListService) publish(ctx context.Context, result *UploadResult) {
	if s.Publisher == nil {
		return
	}

	summary := make([]distribution.AgentSummary, len(result.Distribution))
	for i, d := range result.Distribution {
		summary[i] = d.AgentSummary
	}
	event := events.NewDistributionCompleted(result.OriginalFileName, result.UploadedAt, result.TotalItems, result.DroppedRows, summary)

	if err := s.Publisher.PublishDistributionCompleted(ctx, event); err != nil {
		prometheus.EventPublishErrorCounter.Inc()
		logger.FromContext(ctx).Error("Failed to publish distribution event",
			zap.String("file", result.OriginalFileName),
			zap.Error(err))
	}
}

// Summary counts persisted items per agent in roster order
func (s *ListService) Summary(ctx context.Context) (*Summary, error) {
	agents, err := s.AgentRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.ListRepo.CountByAgent(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.ListRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalItems:   total,
		AgentsCount:  len(agents),
		Distribution: distribution.SummarizeCounts(agents, counts),
	}, nil
}

func (s *ListService) List(ctx context.Context, filter repository.ListFilter) ([]model.ListItem, error) {
	return s.ListRepo.List(ctx, filter)
}

func (s *ListService) Files(ctx context.Context) ([]model.FileBatch, error) {
	return s.ListRepo.ListFiles(ctx)
}

func (s *ListService) DeleteItem(ctx context.Context, id uint) error {
	if err := s.ListRepo.DeleteByID(ctx, id); err != nil {
		return err
	}
	prometheus.RecordDeleted("item", 1)
	return nil
}

// DeleteFile removes one distribution batch and returns the number of items removed
func (s *ListService) DeleteFile(ctx context.Context, fileName string) (int64, error) {
	deleted, err := s.ListRepo.DeleteByFileName(ctx, fileName)
	if err != nil {
		return 0, err
	}
	prometheus.RecordDeleted("file", deleted)
	return deleted, nil
}

func (s *ListService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func attachAgents(items []model.ListItem, agents []model.Agent) {
	byID := make(map[uint]*model.Agent, len(agents))
	for i := range agents {
		byID[agents[i].ID] = &agents[i]
	}
	for i := range items {
		items[i].Agent = byID[items[i].AgentID]
	}
}

func uploadOutcome(err error) string {
	var (
		parseErr       *appErrors.ParseError
		validationErr  *appErrors.ValidationError
		noAgentsErr    *appErrors.NoAgentsError
		persistenceErr *appErrors.PersistenceError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &validationErr):
		return "no_valid_rows"
	case errors.As(err, &noAgentsErr):
		return "no_agents"
	case errors.As(err, &persistenceErr):
		return "persistence_error"
	}
	return "error"
}
