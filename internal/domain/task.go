package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Hash fields of a host task record. Host agents read these names.
const (
	TaskFieldID        = "id"
	TaskFieldCreatedAt = "created_at"
	TaskFieldHostID    = "host_id"
	TaskFieldCommand   = "command"
	TaskFieldParams    = "params"
	TaskFieldAck       = "ack"
)

// AckPending is the initial ack value. Only the consuming agent changes it.
const AckPending = "0"

// ErrInvalidTask is returned when a task lacks its target host or command.
var ErrInvalidTask = errors.New("invalid host task")

// ErrMalformedTask is returned when a stored record cannot be read back.
var ErrMalformedTask = errors.New("malformed host task record")

// HostTask is one command queued for the agent running on a specific host.
type HostTask struct {
	ID        string
	CreatedAt int64 // unix seconds
	HostID    string
	Command   string
	Params    Params
	Ack       string
}

// Validate checks the fields a consumer needs to route the task.
func (t *HostTask) Validate() error {
	if t.HostID == "" {
		return fmt.Errorf("%w: host_id is required", ErrInvalidTask)
	}
	if t.Command == "" {
		return fmt.Errorf("%w: command is required", ErrInvalidTask)
	}
	return nil
}

// Fields flattens the task into hash fields. Params are encoded with
// EncodeParams, so a serialization fault surfaces here before any write.
func (t *HostTask) Fields() (map[string]any, error) {
	params, err := EncodeParams(t.Params)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		TaskFieldID:        t.ID,
		TaskFieldCreatedAt: t.CreatedAt,
		TaskFieldHostID:    t.HostID,
		TaskFieldCommand:   t.Command,
		TaskFieldParams:    params,
		TaskFieldAck:       t.Ack,
	}, nil
}

// HostTaskFromFields rebuilds a task from a stored hash.
func HostTaskFromFields(fields map[string]string) (*HostTask, error) {
	createdAt, err := strconv.ParseInt(fields[TaskFieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid created_at %q: %w", ErrMalformedTask, fields[TaskFieldCreatedAt], err)
	}
	params, err := DecodeParams(fields[TaskFieldParams])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTask, err)
	}
	return &HostTask{
		ID:        fields[TaskFieldID],
		CreatedAt: createdAt,
		HostID:    fields[TaskFieldHostID],
		Command:   fields[TaskFieldCommand],
		Params:    params,
		Ack:       fields[TaskFieldAck],
	}, nil
}
