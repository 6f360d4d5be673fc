package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/vanta/internal/model"
)

// ListTasks returns the user's follow-up tasks.
func (c *Client) ListTasks(ctx context.Context, opts RequestOptions) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.FetchJSON(ctx, "/tasks", &tasks, opts); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// ActOnTask completes, defers or reopens a task.
func (c *Client) ActOnTask(
	ctx context.Context,
	id string,
	action model.TaskAction,
	opts RequestOptions,
) (*model.Task, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	body := struct {
		Action model.TaskAction `json:"action"`
	}{Action: action}

	var task *model.Task
	if err := c.SendJSON(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), body, &task, opts); err != nil {
		return nil, fmt.Errorf("applying %s to task %s: %w", action, id, err)
	}
	return task, nil
}
