// Package scheduler runs the asynq-backed follow-up pipeline: a ticker
// scan enqueues due follow-ups, the worker sends them and queues the
// response-window check that progresses the attempt chain.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskFollowUpDispatch delivers one due follow-up on the channel.
const TaskFollowUpDispatch = "followups.dispatch"

// TaskFollowUpProgress checks a sent follow-up after its response
// window and schedules the next attempt when the lead stayed silent.
const TaskFollowUpProgress = "followups.progress"

type FollowUpDispatchPayload struct {
	FollowUpID string `json:"followUpId"`
}

type FollowUpProgressPayload struct {
	FollowUpID string `json:"followUpId"`
}

func NewFollowUpDispatchTask(payload FollowUpDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpDispatch, data), nil
}

func ParseFollowUpDispatchPayload(task *asynq.Task) (FollowUpDispatchPayload, error) {
	var payload FollowUpDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpDispatchPayload{}, err
	}
	return payload, nil
}

func NewFollowUpProgressTask(payload FollowUpProgressPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpProgress, data), nil
}

func ParseFollowUpProgressPayload(task *asynq.Task) (FollowUpProgressPayload, error) {
	var payload FollowUpProgressPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpProgressPayload{}, err
	}
	return payload, nil
}
