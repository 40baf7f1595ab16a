package entity

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation: timeout_seconds: too low",
		(&ValidationError{Field: "timeout_seconds", Message: "too low"}).Error())
	assert.Equal(t, "validation: input text is empty",
		(&ValidationError{Message: "input text is empty"}).Error())
	assert.Equal(t, "get task: remote returned 500: boom",
		(&RemoteError{Op: "get task", StatusCode: 500, Message: "boom"}).Error())
	assert.Equal(t, "upload a.txt: status 403",
		(&UploadError{Filename: "a.txt", StatusCode: 403}).Error())
	assert.Equal(t, "task t-1 not found",
		(&NotFoundError{Resource: "task", ID: "t-1"}).Error())
}

func TestErrorsUnwrap(t *testing.T) {
	err := &TaskCreationError{Err: &RemoteError{Op: "create task", Err: io.ErrUnexpectedEOF}}
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "create task: unexpected EOF", remote.Error())
}

func TestParseAgentProfile(t *testing.T) {
	p, err := ParseAgentProfile("speed")
	require.NoError(t, err)
	assert.Equal(t, AgentProfileSpeed, p)

	_, err = ParseAgentProfile("fast")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "agent_profile", verr.Field)
}
