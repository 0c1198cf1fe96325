package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	appErrors "distribution-service/internal/errors"
	"distribution-service/internal/events"
	"distribution-service/internal/model"
	"distribution-service/internal/repository"
	"distribution-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DistributionCompleted
	err    error
}

func (p *recordingPublisher) PublishDistributionCompleted(_ context.Context, event events.DistributionCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	db        *gorm.DB
	svc       *ListService
	publisher *recordingPublisher
	tempDir   string
	uploaded  time.Time
}

func newFixture(t *testing.T, agentNames ...string) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	agentRepo := &repository.AgentRepository{DB: db}
	for _, name := range agentNames {
		require.NoError(t, agentRepo.Create(context.Background(), &model.Agent{
			Name:         name,
			Email:        strings.ToLower(name) + "@example.com",
			MobileNumber: "+10000000",
			Password:     "hash",
		}))
	}

	f := &fixture{
		db:        db,
		publisher: &recordingPublisher{},
		tempDir:   t.TempDir(),
		uploaded:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.svc = &ListService{
		DB:        db,
		AgentRepo: agentRepo,
		ListRepo:  &repository.ListItemRepository{DB: db},
		Publisher: f.publisher,
		TempDir:   f.tempDir,
		Now:       func() time.Time { return f.uploaded },
	}
	return f
}

func (f *fixture) assertTempDirEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "spooled upload must be removed")
}

func (f *fixture) itemCount(t *testing.T) int64 {
	t.Helper()
	count, err := f.svc.ListRepo.Count(context.Background())
	require.NoError(t, err)
	return count
}

func TestIngestUploadRoundRobin(t *testing.T) {
	f := newFixture(t, "Agent-A", "Agent-B")
	csv := "FirstName,Phone,Notes\nAlice,111,\nBob,222,call back\n"

	result, err := f.svc.IngestUpload(context.Background(), strings.NewReader(csv), "contacts.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalItems)
	assert.Equal(t, 0, result.DroppedRows)
	assert.Equal(t, 2, result.AgentsCount)
	require.Len(t, result.Distribution, 2)

	first, second := result.Distribution[0], result.Distribution[1]
	assert.Equal(t, "Agent-A", first.AgentName)
	assert.Equal(t, int64(1), first.Count)
	require.Len(t, first.Lists, 1)
	assert.Equal(t, "Alice", first.Lists[0].FirstName)
	require.NotNil(t, first.Lists[0].Agent)
	assert.Equal(t, "Agent-A", first.Lists[0].Agent.Name)

	assert.Equal(t, "Agent-B", second.AgentName)
	assert.Equal(t, int64(1), second.Count)
	require.Len(t, second.Lists, 1)
	assert.Equal(t, "Bob", second.Lists[0].FirstName)
	assert.Equal(t, "call back", second.Lists[0].Notes)
	assert.Equal(t, "contacts.csv", second.Lists[0].OriginalFileName)
	assert.True(t, second.Lists[0].UploadedAt.Equal(f.uploaded))

	summary, err := f.svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalItems)
	assert.Equal(t, 2, summary.AgentsCount)
	for _, s := range summary.Distribution {
		assert.Equal(t, int64(1), s.Count)
	}

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, "contacts.csv", event.OriginalFileName)
	assert.Equal(t, 2, event.TotalItems)
	assert.Len(t, event.Agents, 2)

	f.assertTempDirEmpty(t)
}

func TestIngestUploadDropsInvalidRows(t *testing.T) {
	f := newFixture(t, "Agent-A", "Agent-B")
	csv := "FirstName,Phone\n  Ann , 1 \nBen,   \n,333\nCat,444\n"

	result, err := f.svc.IngestUpload(context.Background(), strings.NewReader(csv), "leads.CSV")
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalItems)
	assert.Equal(t, 2, result.DroppedRows)
	assert.Equal(t, "Ann", result.Distribution[0].Lists[0].FirstName)
	assert.Equal(t, "1", result.Distribution[0].Lists[0].Phone)
	assert.Equal(t, "Cat", result.Distribution[1].Lists[0].FirstName)
}

func TestIngestUploadWithoutAgentsWritesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.IngestUpload(context.Background(), strings.NewReader("FirstName,Phone\nAlice,111\n"), "contacts.csv")

	var noAgents *appErrors.NoAgentsError
	require.ErrorAs(t, err, &noAgents)
	assert.Zero(t, f.itemCount(t))
	assert.Empty(t, f.publisher.events)
	f.assertTempDirEmpty(t)
}

func TestIngestUploadRejectsFiles(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		content  string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "missing phone column",
			fileName: "contacts.csv",
			content:  "FirstName,Notes\nAlice,hi\n",
			check: func(t *testing.T, err error) {
				var parseErr *appErrors.ParseError
				assert.ErrorAs(t, err, &parseErr)
			},
		},
		{
			name:     "unsupported extension",
			fileName: "contacts.txt",
			content:  "FirstName,Phone\nAlice,111\n",
			check: func(t *testing.T, err error) {
				var parseErr *appErrors.ParseError
				assert.ErrorAs(t, err, &parseErr)
			},
		},
		{
			name:     "corrupt workbook",
			fileName: "contacts.xlsx",
			content:  "not a zip archive",
			check: func(t *testing.T, err error) {
				var parseErr *appErrors.ParseError
				assert.ErrorAs(t, err, &parseErr)
			},
		},
		{
			name:     "no valid rows",
			fileName: "contacts.csv",
			content:  "FirstName,Phone\nAlice,\n,222\n",
			check: func(t *testing.T, err error) {
				var validationErr *appErrors.ValidationError
				assert.ErrorAs(t, err, &validationErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "Agent-A")

			result, err := f.svc.IngestUpload(context.Background(), strings.NewReader(tt.content), tt.fileName)

			require.Error(t, err)
			assert.Nil(t, result)
			tt.check(t, err)
			assert.Zero(t, f.itemCount(t))
			f.assertTempDirEmpty(t)
		})
	}
}

func TestIngestUploadAtomic(t *testing.T) {
	f := newFixture(t, "Agent-A", "Agent-B", "Agent-C")
	f.svc.Atomic = true

	result, err := f.svc.IngestUpload(context.Background(), strings.NewReader("FirstName,Phone\na,1\nb,2\nc,3\nd,4\n"), "contacts.csv")
	require.NoError(t, err)

	counts := make([]int64, len(result.Distribution))
	for i, d := range result.Distribution {
		counts[i] = d.Count
	}
	assert.Equal(t, []int64{2, 1, 1}, counts)
	assert.Equal(t, int64(4), f.itemCount(t))
}

func TestIngestUploadSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t, "Agent-A")
	f.publisher.err = errors.New("broker unavailable")

	result, err := f.svc.IngestUpload(context.Background(), strings.NewReader("FirstName,Phone\nAlice,111\n"), "contacts.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalItems)
	assert.Equal(t, int64(1), f.itemCount(t))
}

func TestDeleteFileAndItem(t *testing.T) {
	f := newFixture(t, "Agent-A", "Agent-B")
	ctx := context.Background()

	_, err := f.svc.IngestUpload(ctx, strings.NewReader("FirstName,Phone\na,1\nb,2\nc,3\n"), "contacts.csv")
	require.NoError(t, err)
	f.uploaded = f.uploaded.Add(time.Minute)
	other, err := f.svc.IngestUpload(ctx, strings.NewReader("FirstName,Phone\nd,4\n"), "other.csv")
	require.NoError(t, err)

	files, err := f.svc.Files(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "other.csv", files[0].OriginalFileName)

	deleted, err := f.svc.DeleteFile(ctx, "contacts.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	remaining, err := f.svc.List(ctx, repository.ListFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "other.csv", remaining[0].OriginalFileName)

	itemID := other.Distribution[0].Lists[0].ID
	require.NoError(t, f.svc.DeleteItem(ctx, itemID))

	var notFound *appErrors.NotFoundError
	assert.ErrorAs(t, f.svc.DeleteItem(ctx, itemID), &notFound)
	assert.Zero(t, f.itemCount(t))
}

func TestUploadOutcome(t *testing.T) {
	assert.Equal(t, "success", uploadOutcome(nil))
	assert.Equal(t, "parse_error", uploadOutcome(appErrors.NewParseError("csv", "bad", nil)))
	assert.Equal(t, "no_valid_rows", uploadOutcome(appErrors.NewValidationError("empty")))
	assert.Equal(t, "no_agents", uploadOutcome(appErrors.NewNoAgentsError()))
	assert.Equal(t, "persistence_error", uploadOutcome(appErrors.NewPersistenceError("insert", errors.New("boom"))))
	assert.Equal(t, "error", uploadOutcome(errors.New("boom")))
}
