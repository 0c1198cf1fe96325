package appErrors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("upload: %w", NewParseError("csv", "bad quote", io.ErrUnexpectedEOF))

	var parseErr *ParseError
	assert.True(t, errors.As(wrapped, &parseErr))
	assert.Equal(t, "csv", parseErr.Format)
	assert.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)

	var noAgents *NoAgentsError
	assert.False(t, errors.As(wrapped, &noAgents))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "failed to parse xlsx file: workbook has no sheets", NewParseError("xlsx", "workbook has no sheets", nil).Error())
	assert.Equal(t, "agent with ID 7 not found", NewNotFound("agent", 7).Error())
	assert.Contains(t, NewPersistenceError("insert list items", io.EOF).Error(), "insert list items")
}
