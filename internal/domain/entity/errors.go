package entity

import "fmt"

// ValidationError is bad local input or configuration, detected before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error { return e.Err }

type UploadError struct {
	Filename   string
	StatusCode int
	Err        error
}

func (e *UploadError) Error() string {
	prefix := "upload"
	if e.Filename != "" {
		prefix = "upload " + e.Filename
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d", prefix, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

type TaskCreationError struct {
	Err error
}

func (e *TaskCreationError) Error() string {
	return fmt.Sprintf("create task: %v", e.Err)
}

func (e *TaskCreationError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
