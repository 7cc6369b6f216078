package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-manager.com/task-manager/internal/constants"
	apperrors "task-manager.com/task-manager/internal/errors"
	model "task-manager.com/task-manager/internal/models"
	"task-manager.com/task-manager/internal/pagination"
)

// TaskSortColumns maps the sort fields callers may name to task columns.
var TaskSortColumns = map[string]string{
	"title":        "tasks.title",
	"description":  "tasks.description",
	"color":        "tasks.color",
	"state":        "tasks.state",
	"taskState":    "tasks.state",
	"day":          "tasks.day",
	"startTime":    "tasks.start_time",
	"endTime":      "tasks.end_time",
	"createdAt":    "tasks.created_at",
	"creationDate": "tasks.created_at",
	"updatedAt":    "tasks.updated_at",
	"updatedDate":  "tasks.updated_at",
}

// TaskFilter is a conjunction of optional predicates. Zero-valued fields
// match every task, except WorkspaceID which is always applied.
type TaskFilter struct {
	WorkspaceID  string
	State        *constants.TaskState
	ExcludeState *constants.TaskState
	// DayFrom and DayTo are inclusive. DayBefore is exclusive.
	DayFrom   *time.Time
	DayTo     *time.Time
	DayBefore *time.Time
	// UserID matches tasks where the user is principal or side user.
	UserID string
	// Search is a case-insensitive substring of title or description.
	Search string
}

type DayCount struct {
	Day   time.Time
	Count int64
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts the task and its side-user and tag links in one
// transaction. The linked users and tags must already exist.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Version == 0 {
		task.Version = 1
	}
	task.FoldText()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("PrincipalUser", "SideUsers.*", "Tags.*").Create(task).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.withRelations(r.db.WithContext(ctx)).First(&task, "tasks.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Find returns one page of tasks matching filter along with the total match
// count across all pages.
func (r *TaskRepository) Find(ctx context.Context, filter TaskFilter, p pagination.Pageable) ([]model.Task, int64, error) {
	var total int64
	if err := applyTaskFilter(r.db.WithContext(ctx).Model(&model.Task{}), filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	var tasks []model.Task
	query := applyTaskFilter(r.withRelations(r.db.WithContext(ctx)), filter)
	query = applyOrder(query, p.Sort).Offset(p.Offset()).Limit(p.Size)
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// FindAll is Find without paging.
func (r *TaskRepository) FindAll(ctx context.Context, filter TaskFilter, sorts ...pagination.Sort) ([]model.Task, error) {
	var tasks []model.Task
	query := applyOrder(applyTaskFilter(r.withRelations(r.db.WithContext(ctx)), filter), sorts)
	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update writes the scalar fields of task guarded by its version, then
// replaces side users and tags when asked to. On success task.Version is
// advanced to the stored value.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task, replaceSideUsers, replaceTags bool) error {
	task.FoldText()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Task{}).
			Where("id = ? AND version = ?", task.ID, task.Version).
			Updates(map[string]interface{}{
				"title":              task.Title,
				"description":        task.Description,
				"title_folded":       task.TitleFolded,
				"description_folded": task.DescriptionFolded,
				"color":              task.Color,
				"state":              task.State,
				"day":                task.Day,
				"start_time":         task.StartTime,
				"end_time":           task.EndTime,
				"principal_user_id":  task.PrincipalUserID,
				"updated_at":         task.UpdatedAt,
				"version":            gorm.Expr("version + 1"),
			})

		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return apperrors.ErrOptimisticLock
		}

		if replaceSideUsers {
			if err := replaceAssociation(tx, task, "SideUsers", task.SideUsers, len(task.SideUsers)); err != nil {
				return err
			}
		}

		if replaceTags {
			if err := replaceAssociation(tx, task, "Tags", task.Tags, len(task.Tags)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrOptimisticLock) {
			return err
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	task.Version++
	return nil
}

func replaceAssociation(tx *gorm.DB, task *model.Task, name string, values any, n int) error {
	assoc := tx.Model(&model.Task{ID: task.ID}).Association(name)
	if n == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}

// Delete removes the task and its link rows. Nothing is soft-deleted.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Select("SideUsers", "Tags").Delete(&model.Task{ID: id})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

// CountByState only reports states that have at least one task.
func (r *TaskRepository) CountByState(ctx context.Context, workspaceID string) (map[constants.TaskState]int64, error) {
	var rows []struct {
		State constants.TaskState
		Count int64
	}

	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("state, COUNT(*) AS count").
		Where("workspace_id = ?", workspaceID).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by state: %w", err)
	}

	counts := make(map[constants.TaskState]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}

// CountByDay counts tasks per day in [from, to], ascending by day. Days with
// no tasks are omitted.
func (r *TaskRepository) CountByDay(ctx context.Context, workspaceID string, from, to time.Time) ([]DayCount, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("day, COUNT(*) AS count").
		Where("workspace_id = ? AND day >= ? AND day <= ?", workspaceID, from, to).
		Group("day").
		Order("day ASC").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by day: %w", err)
	}
	defer rows.Close()

	counts := []DayCount{}
	for rows.Next() {
		var (
			stored string
			count  int64
		)
		if err := rows.Scan(&stored, &count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		day, err := parseStoredDay(stored)
		if err != nil {
			return nil, err
		}
		counts = append(counts, DayCount{Day: day, Count: count})
	}
	return counts, rows.Err()
}

// parseStoredDay reads the calendar date prefix shared by every timestamp
// layout the driver may hand back.
func parseStoredDay(v string) (time.Time, error) {
	if len(v) < len(time.DateOnly) {
		return time.Time{}, fmt.Errorf("unexpected stored day %q", v)
	}
	return time.Parse(time.DateOnly, v[:len(time.DateOnly)])
}

func (r *TaskRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("PrincipalUser").Preload("SideUsers").Preload("Tags")
}

func applyTaskFilter(db *gorm.DB, f TaskFilter) *gorm.DB {
	db = db.Where("tasks.workspace_id = ?", f.WorkspaceID)

	if f.State != nil {
		db = db.Where("tasks.state = ?", *f.State)
	}
	if f.ExcludeState != nil {
		db = db.Where("tasks.state <> ?", *f.ExcludeState)
	}
	if f.DayFrom != nil {
		db = db.Where("tasks.day >= ?", *f.DayFrom)
	}
	if f.DayTo != nil {
		db = db.Where("tasks.day <= ?", *f.DayTo)
	}
	if f.DayBefore != nil {
		db = db.Where("tasks.day < ?", *f.DayBefore)
	}
	if f.UserID != "" {
		db = db.Where(
			"(tasks.principal_user_id = ? OR EXISTS (SELECT 1 FROM task_side_users su WHERE su.task_id = tasks.id AND su.user_id = ?))",
			f.UserID, f.UserID,
		)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(model.FoldCase(f.Search)) + "%"
		db = db.Where(
			`(tasks.title_folded LIKE ? ESCAPE '\' OR tasks.description_folded LIKE ? ESCAPE '\')`,
			pattern, pattern,
		)
	}

	return db
}

// applyOrder always finishes with creation order so ties are stable.
func applyOrder(db *gorm.DB, sorts []pagination.Sort) *gorm.DB {
	for _, s := range sorts {
		db = db.Order(s.Column + " " + string(s.Direction))
	}
	return db.Order("tasks.created_at ASC").Order("tasks.id ASC")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(v string) string {
	return likeEscaper.Replace(v)
}
