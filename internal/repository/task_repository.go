package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tasklist/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	task.DueDate = task.DueDate.UTC()
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// GetForOwner retrieves a task by its ID, only if ownerID owns it
func (r *TaskRepository) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	return findOwned(r.db.WithContext(ctx), ownerID, id)
}

// Update fetches the owner's task, applies mutate and saves it in one
// transaction. A mutate error aborts the transaction and is returned as is.
func (r *TaskRepository) Update(ctx context.Context, ownerID, id uuid.UUID, mutate func(*model.Task) error) (*model.Task, error) {
	var updated *model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findOwned(tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := mutate(task); err != nil {
			return err
		}
		task.DueDate = task.DueDate.UTC()
		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Toggle flips the completion flag of the owner's task
func (r *TaskRepository) Toggle(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	return r.Update(ctx, ownerID, id, func(task *model.Task) error {
		task.IsCompleted = !task.IsCompleted
		return nil
	})
}

// Delete removes the owner's task
func (r *TaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findOwned(tx, ownerID, id)
		if err != nil {
			return err
		}
		result := tx.Delete(&model.Task{}, "id = ? AND user_id = ?", task.ID, ownerID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
}

// Count returns the number of tasks matching q
func (r *TaskRepository) Count(ctx context.Context, q *TaskQuery) (int64, error) {
	var total int64
	err := q.filter(r.db.WithContext(ctx).Model(&model.Task{})).Count(&total).Error
	return total, err
}

// Fetch returns at most limit tasks matching q in q's order, skipping offset
func (r *TaskRepository) Fetch(ctx context.Context, q *TaskQuery, offset, limit int) ([]model.Task, error) {
	db := q.order(q.filter(r.db.WithContext(ctx).Model(&model.Task{})))
	if q.preload {
		db = db.Preload("User")
	}

	tasks := make([]model.Task, 0, limit)
	if err := db.Offset(offset).Limit(limit).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func findOwned(db *gorm.DB, ownerID, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := db.Where("id = ? AND user_id = ?", id, ownerID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
