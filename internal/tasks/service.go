package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taskboard/internal/apiclient"
	"github.com/taskboard/internal/apipaths"
	"github.com/taskboard/internal/validation"
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus accepts a status in any case; "" means no filter.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", &validation.Error{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
	}
}

// Task is one item on the board
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Input is the writable part of a task
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ListParams filters and paginates the board
type ListParams struct {
	Page   int
	Search string
	Status Status
}

// Pagination is the paging envelope returned with a list
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of tasks
type Page struct {
	Data       []Task     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Service is the task board's view of the task API
type Service struct {
	client *apiclient.Client
	logger *slog.Logger
}

func NewService(client *apiclient.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// List fetches one page of tasks
func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	query := url.Values{
		"page":   {strconv.Itoa(params.Page)},
		"search": {params.Search},
	}
	if params.Status != "" {
		query.Set("status", string(params.Status))
	}

	resp, err := s.client.Get(ctx, apipaths.Tasks, apiclient.WithQuery(query))
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	var page Page
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []Task{}
	}
	if page.Pagination.TotalPages < 1 {
		page.Pagination.TotalPages = 1
	}
	if page.Pagination.Page == 0 {
		page.Pagination.Page = params.Page
	}
	return &page, nil
}

// Create adds a task
func (s *Service) Create(ctx context.Context, in Input) (*Task, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Post(ctx, apipaths.Tasks, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	task, err := decodeTask(resp)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tasks: created", "task_id", task.ID)
	return task, nil
}

// Update replaces a task's title and description
func (s *Service) Update(ctx context.Context, id string, in Input) (*Task, error) {
	if err := validation.ValidateTaskID(id); err != nil {
		return nil, err
	}
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Put(ctx, apipaths.TaskByID(id), in)
	if err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	task, err := decodeTask(resp)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tasks: updated", "task_id", id)
	return task, nil
}

// Delete removes a task
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validation.ValidateTaskID(id); err != nil {
		return err
	}
	if _, err := s.client.Delete(ctx, apipaths.TaskByID(id)); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "tasks: deleted", "task_id", id)
	return nil
}

// Toggle flips a task between pending and completed
func (s *Service) Toggle(ctx context.Context, id string) (*Task, error) {
	if err := validation.ValidateTaskID(id); err != nil {
		return nil, err
	}

	resp, err := s.client.Patch(ctx, apipaths.TaskToggle(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle task %s: %w", id, err)
	}
	task, err := decodeTask(resp)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tasks: toggled", "task_id", id, "status", task.Status)
	return task, nil
}

func normalize(in Input) (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.ValidateTaskTitle(in.Title); err != nil {
		return in, err
	}
	if err := validation.ValidateDescription(in.Description); err != nil {
		return in, err
	}
	return in, nil
}

// decodeTask accepts both a bare task and a {"data": task} envelope.
func decodeTask(resp *apiclient.Response) (*Task, error) {
	var envelope struct {
		Data *Task `json:"data"`
	}
	if err := resp.Decode(&envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var task Task
	if len(resp.Body) == 0 {
		return &task, nil
	}
	if err := resp.Decode(&task); err != nil {
		return nil, err
	}
	return &task, nil
}
