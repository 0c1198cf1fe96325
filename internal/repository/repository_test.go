package repository

import (
	"context"
	"testing"
	"time"

	appErrors "distribution-service/internal/errors"
	"distribution-service/internal/model"
	"distribution-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAgents(t *testing.T, repo *AgentRepository, names ...string) []model.Agent {
	t.Helper()
	var agents []model.Agent
	for _, name := range names {
		a := model.Agent{Name: name, Email: name + "@example.com", MobileNumber: "+10000000", Password: "hash"}
		require.NoError(t, repo.Create(context.Background(), &a))
		agents = append(agents, a)
	}
	return agents
}

func TestAgentRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := &AgentRepository{DB: database.NewTestDB(t)}

	agents := seedAgents(t, repo, "alice", "bob")

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "alice", listed[0].Name, "agents are listed in creation order")

	taken, err := repo.EmailTaken(ctx, "bob@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(ctx, "bob@example.com", agents[1].ID)
	require.NoError(t, err)
	assert.False(t, taken)

	agents[0].Name = "Alice A."
	agents[0].MobileNumber = "+19999999"
	require.NoError(t, repo.Update(ctx, &agents[0]))

	got, err := repo.GetByID(ctx, agents[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", got.Name)
	assert.Equal(t, "+19999999", got.MobileNumber)
	assert.Equal(t, "hash", got.Password)

	require.NoError(t, repo.Delete(ctx, agents[1].ID))

	var notFound *appErrors.NotFoundError
	_, err = repo.GetByID(ctx, agents[1].ID)
	assert.ErrorAs(t, err, &notFound)
	assert.ErrorAs(t, repo.Delete(ctx, agents[1].ID), &notFound)
	assert.ErrorAs(t, repo.Update(ctx, &model.Agent{ID: 404, Name: "x", Email: "x@example.com"}), &notFound)
}

func TestAdminRepository(t *testing.T) {
	ctx := context.Background()
	repo := &AdminRepository{DB: database.NewTestDB(t)}

	missing, err := repo.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	admin := model.Admin{Email: "root@example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, &admin))
	assert.NotZero(t, admin.ID)

	found, err := repo.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, found.ID)

	assert.Error(t, repo.Create(ctx, &model.Admin{Email: "root@example.com", Password: "other"}), "email is unique")
}

func batch(agentIDs []uint, fileName string, uploadedAt time.Time, names ...string) []model.ListItem {
	items := make([]model.ListItem, len(names))
	for i, name := range names {
		items[i] = model.ListItem{
			FirstName:        name,
			Phone:            "555-" + name,
			AgentID:          agentIDs[i%len(agentIDs)],
			OriginalFileName: fileName,
			UploadedAt:       uploadedAt,
		}
	}
	return items
}

func TestListItemRepositoryCreateBatch(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	agents := seedAgents(t, &AgentRepository{DB: db}, "alice", "bob")
	repo := &ListItemRepository{DB: db}

	saved, err := repo.CreateBatch(ctx, batch([]uint{agents[0].ID, agents[1].ID}, "contacts.csv", time.Now().UTC(), "Ann", "Ben", "Cat"))
	require.NoError(t, err)
	require.Len(t, saved, 3)
	for _, item := range saved {
		assert.NotZero(t, item.ID)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestListItemRepositoryCreateBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	agents := seedAgents(t, &AgentRepository{DB: db}, "alice")
	repo := &ListItemRepository{DB: db}

	items := batch([]uint{agents[0].ID}, "contacts.csv", time.Now().UTC(), "Ann", "Ben")
	items[1].AgentID = 0

	_, err := repo.CreateBatch(ctx, items)

	var persistenceErr *appErrors.PersistenceError
	require.ErrorAs(t, err, &persistenceErr)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListItemRepositoryListAndFilter(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	agentRepo := &AgentRepository{DB: db}
	agents := seedAgents(t, agentRepo, "alice", "bob")
	repo := &ListItemRepository{DB: db}

	older := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	_, err := repo.CreateBatch(ctx, batch([]uint{agents[0].ID, agents[1].ID}, "old.csv", older, "Ann", "Ben"))
	require.NoError(t, err)
	withNotes := batch([]uint{agents[0].ID}, "new.xlsx", newer, "Cat")
	withNotes[0].Notes = "Call BACK after 5"
	_, err = repo.CreateBatch(ctx, withNotes)
	require.NoError(t, err)

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Cat", all[0].FirstName, "newest upload first")
	require.NotNil(t, all[0].Agent)
	assert.Equal(t, "alice", all[0].Agent.Name)

	byAgent, err := repo.List(ctx, ListFilter{AgentID: &agents[1].ID})
	require.NoError(t, err)
	require.Len(t, byAgent, 1)
	assert.Equal(t, "Ben", byAgent[0].FirstName)

	searched, err := repo.List(ctx, ListFilter{Search: "call back"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, "Cat", searched[0].FirstName)

	searched, err = repo.List(ctx, ListFilter{Search: "555-ann"})
	require.NoError(t, err)
	require.Len(t, searched, 1)

	searched, err = repo.List(ctx, ListFilter{Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, searched, "wildcards are matched literally")

	// orphaned items survive agent deletion with no populated agent
	require.NoError(t, agentRepo.Delete(ctx, agents[1].ID))
	orphans, err := repo.List(ctx, ListFilter{AgentID: &agents[1].ID})
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Nil(t, orphans[0].Agent)
}

func TestListItemRepositoryDeletes(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	agents := seedAgents(t, &AgentRepository{DB: db}, "alice", "bob")
	repo := &ListItemRepository{DB: db}
	ids := []uint{agents[0].ID, agents[1].ID}

	now := time.Now().UTC()
	_, err := repo.CreateBatch(ctx, batch(ids, "contacts.csv", now, "Ann", "Ben", "Cat"))
	require.NoError(t, err)
	kept, err := repo.CreateBatch(ctx, batch(ids, "other.csv", now, "Dan"))
	require.NoError(t, err)

	deleted, err := repo.DeleteByFileName(ctx, "contacts.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	deleted, err = repo.DeleteByFileName(ctx, "contacts.csv")
	require.NoError(t, err)
	assert.Zero(t, deleted)

	remaining, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "other.csv", remaining[0].OriginalFileName)

	require.NoError(t, repo.DeleteByID(ctx, kept[0].ID))
	var notFound *appErrors.NotFoundError
	assert.ErrorAs(t, repo.DeleteByID(ctx, kept[0].ID), &notFound)
}

func TestListItemRepositoryCountsAndFiles(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	agents := seedAgents(t, &AgentRepository{DB: db}, "alice", "bob")
	repo := &ListItemRepository{DB: db}
	ids := []uint{agents[0].ID, agents[1].ID}

	first := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	_, err := repo.CreateBatch(ctx, batch(ids, "contacts.csv", first, "Ann", "Ben", "Cat"))
	require.NoError(t, err)
	_, err = repo.CreateBatch(ctx, batch(ids, "leads.xlsx", second, "Dan"))
	require.NoError(t, err)
	_, err = repo.CreateBatch(ctx, batch(ids, "contacts.csv", second.Add(time.Hour), "Eve"))
	require.NoError(t, err)

	counts, err := repo.CountByAgent(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{agents[0].ID: 4, agents[1].ID: 1}, counts)

	files, err := repo.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "contacts.csv", files[0].OriginalFileName)
	assert.Equal(t, int64(4), files[0].Count)
	assert.True(t, files[0].UploadedAt.Equal(second.Add(time.Hour)))
	assert.Equal(t, "leads.xlsx", files[1].OriginalFileName)
	assert.Equal(t, int64(1), files[1].Count)
}
