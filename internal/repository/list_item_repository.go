package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	appErrors "distribution-service/internal/errors"
	"distribution-service/internal/model"
	"distribution-service/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

// ListFilter narrows List. A nil AgentID matches every agent; Search is a
// case-insensitive substring match over first name, phone and notes.
type ListFilter struct {
	AgentID *uint
	Search  string
}

type ListItemRepositoryInterface interface {
	CreateBatch(ctx context.Context, items []model.ListItem) ([]model.ListItem, error)
	List(ctx context.Context, filter ListFilter) ([]model.ListItem, error)
	DeleteByID(ctx context.Context, id uint) error
	DeleteByFileName(ctx context.Context, fileName string) (int64, error)
	CountByAgent(ctx context.Context) (map[uint]int64, error)
	Count(ctx context.Context) (int64, error)
	ListFiles(ctx context.Context) ([]model.FileBatch, error)
	WithTx(tx *gorm.DB) ListItemRepositoryInterface
}

type ListItemRepository struct {
	DB *gorm.DB
}

func (r *ListItemRepository) WithTx(tx *gorm.DB) ListItemRepositoryInterface {
	return &ListItemRepository{DB: tx}
}

// CreateBatch inserts all items in one transaction. Either every item is
// stored and returned with its ID, or none is and a PersistenceError is returned.
func (r *ListItemRepository) CreateBatch(ctx context.Context, items []model.ListItem) ([]model.ListItem, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if len(items) == 0 {
		return items, nil
	}
	for i, item := range items {
		if item.AgentID == 0 {
			return nil, appErrors.NewPersistenceError("insert list items", fmt.Errorf("item %d has no agent", i))
		}
		if item.OriginalFileName == "" {
			return nil, appErrors.NewPersistenceError("insert list items", fmt.Errorf("item %d has no file name", i))
		}
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(items, insertBatchSize).Error
	})
	if err != nil {
		return nil, appErrors.NewPersistenceError("insert list items", err)
	}
	return items, nil
}

// List returns matching items with their agent populated, newest upload first
func (r *ListItemRepository) List(ctx context.Context, filter ListFilter) ([]model.ListItem, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	q := r.DB.WithContext(ctx).Preload("Agent")
	if filter.AgentID != nil {
		q = q.Where("agent_id = ?", *filter.AgentID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		q = q.Where(`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\' OR LOWER(notes) LIKE ? ESCAPE '\')`, like, like, like)
	}

	items := []model.ListItem{}
	if err := q.Order("uploaded_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *ListItemRepository) DeleteByID(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	res := r.DB.WithContext(ctx).Delete(&model.ListItem{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete list item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return appErrors.NewNotFound("list item", id)
	}
	return nil
}

// DeleteByFileName removes every item of one upload batch and returns how many went
func (r *ListItemRepository) DeleteByFileName(ctx context.Context, fileName string) (int64, error) {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	res := r.DB.WithContext(ctx).Where("original_file_name = ?", fileName).Delete(&model.ListItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete list items of %q: %w", fileName, res.Error)
	}
	return res.RowsAffected, nil
}

// CountByAgent returns item counts keyed by agent id, including orphaned ids
func (r *ListItemRepository) CountByAgent(ctx context.Context) (map[uint]int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var rows []struct {
		AgentID uint
		Count   int64
	}
	err := r.DB.WithContext(ctx).Model(&model.ListItem{}).
		Select("agent_id, COUNT(*) AS count").
		Group("agent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count items by agent: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.AgentID] = row.Count
	}
	return counts, nil
}

func (r *ListItemRepository) Count(ctx context.Context) (int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var count int64
	if err := r.DB.WithContext(ctx).Model(&model.ListItem{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// ListFiles groups items by original file name, newest upload first. A name
// uploaded more than once is reported once with the latest upload time.
func (r *ListItemRepository) ListFiles(ctx context.Context) ([]model.FileBatch, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var rows []model.FileBatch
	err := r.DB.WithContext(ctx).Model(&model.ListItem{}).
		Select("original_file_name, uploaded_at, COUNT(*) AS count").
		Group("original_file_name, uploaded_at").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	byName := make(map[string]*model.FileBatch, len(rows))
	files := []model.FileBatch{}
	for _, row := range rows {
		if existing, ok := byName[row.OriginalFileName]; ok {
			existing.Count += row.Count
			if row.UploadedAt.After(existing.UploadedAt) {
				existing.UploadedAt = row.UploadedAt
			}
			continue
		}
		row := row
		byName[row.OriginalFileName] = &row
	}
	for _, f := range byName {
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].UploadedAt.Equal(files[j].UploadedAt) {
			return files[i].OriginalFileName < files[j].OriginalFileName
		}
		return files[i].UploadedAt.After(files[j].UploadedAt)
	})
	return files, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
