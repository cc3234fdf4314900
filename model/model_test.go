package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	m := NewMockModel("mock", "first", "second")

	resp, err := Complete(context.Background(), m, Request{Messages: []Message{UserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)

	resp, err = Complete(context.Background(), m, Request{Messages: []Message{UserMessage("hi")}, Stream: true})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)

	resp, err = Complete(context.Background(), m, Request{Messages: []Message{UserMessage("again")}})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text, "the last response repeats")
	assert.Len(t, m.Requests(), 3)
}

func TestComplete_Error(t *testing.T) {
	_, err := Complete(context.Background(), NewMockModel("mock", "x"), Request{})
	assert.Error(t, err)
}

func TestMockModel_Info(t *testing.T) {
	assert.Equal(t, Info{Name: "mock", Provider: "mock"}, NewMockModel("mock").Info())
}
