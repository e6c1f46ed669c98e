package downstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/pulsefit/gateway/pkg/domain"
)

// ActivityClient talks to the exercise CRUD service.
type ActivityClient struct {
	*Client
}

// NewActivity creates the activity service client.
func NewActivity(baseURL string, timeout time.Duration) (*ActivityClient, error) {
	c, err := New("activity", baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &ActivityClient{Client: c}, nil
}

// AddExercise creates an exercise record from a validated input.
func (c *ActivityClient) AddExercise(ctx context.Context, in domain.AddExerciseInput) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/exercises", map[string]any{
		"username":     in.Username,
		"exerciseType": in.ExerciseType,
		"description":  in.Description,
		"duration":     in.Duration,
		"date":         in.Date,
	})
}

// UpdateExercise replaces an existing exercise record.
func (c *ActivityClient) UpdateExercise(ctx context.Context, in domain.UpdateExerciseInput) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, "/exercises/"+url.PathEscape(in.ID), map[string]any{
		"username":     in.Username,
		"exerciseType": in.ExerciseType,
		"description":  in.Description,
		"duration":     in.Duration,
		"date":         in.Date,
	})
}

// DeleteExercise removes an exercise record by id.
func (c *ActivityClient) DeleteExercise(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/exercises/"+url.PathEscape(id), nil)
}

// ListExercises fetches all exercises for a user.
func (c *ActivityClient) ListExercises(ctx context.Context, username string) (json.RawMessage, error) {
	return c.get(ctx, "/exercises?username="+url.QueryEscape(username))
}
