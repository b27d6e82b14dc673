package services

import (
	"database/sql"
	"strings"
	"time"

	"github.com/avelar/taskboard-be/internal/database"
	"github.com/avelar/taskboard-be/internal/models"
	"github.com/google/uuid"
)

// TaskServiceProvider defines the interface for task services. Every
// operation is scoped to the owning user; a task id belonging to someone
// else behaves exactly like a missing one.
type TaskServiceProvider interface {
	ListTasks(userID string) ([]models.Task, error)
	CreateTask(userID, title string) (models.Task, error)
	SetTaskCompleted(userID, taskID string, completed bool) (models.Task, error)
	DeleteTask(userID, taskID string) error
}

// TaskService provides business logic for task management.
type TaskService struct {
	db *sql.DB
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

// ListTasks retrieves all tasks owned by the given user, newest first.
func (s *TaskService) ListTasks(userID string) ([]models.Task, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, title, completed, created_at FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// CreateTask adds a new, uncompleted task for the given user.
func (s *TaskService) CreateTask(userID, title string) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, &ValidationError{Field: "title", Message: "Task title cannot be empty"}
	}

	task := models.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Completed: false,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		"INSERT INTO tasks(id, user_id, title, completed, created_at) VALUES(?, ?, ?, ?, ?)",
		task.ID, task.UserID, task.Title, task.Completed, database.FormatTime(task.CreatedAt),
	)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// SetTaskCompleted sets the completion flag of a task owned by the given user.
func (s *TaskService) SetTaskCompleted(userID, taskID string, completed bool) (models.Task, error) {
	result, err := s.db.Exec(
		"UPDATE tasks SET completed = ? WHERE id = ? AND user_id = ?",
		completed, taskID, userID,
	)
	if err != nil {
		return models.Task{}, err
	}
	if err := requireRowAffected(result); err != nil {
		return models.Task{}, err
	}
	return s.getTask(userID, taskID)
}

// DeleteTask removes a task owned by the given user.
func (s *TaskService) DeleteTask(userID, taskID string) error {
	result, err := s.db.Exec("DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(result)
}

func (s *TaskService) getTask(userID, taskID string) (models.Task, error) {
	row := s.db.QueryRow(
		"SELECT id, user_id, title, completed, created_at FROM tasks WHERE id = ? AND user_id = ?",
		taskID, userID,
	)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return models.Task{}, ErrNotFound
	}
	return task, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var createdAt string
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Completed, &createdAt); err != nil {
		return models.Task{}, err
	}
	var err error
	task.CreatedAt, err = database.ParseTime(createdAt)
	return task, err
}

// requireRowAffected maps a zero-row mutation to ErrNotFound, which keeps a
// foreign task id indistinguishable from a missing one.
func requireRowAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
