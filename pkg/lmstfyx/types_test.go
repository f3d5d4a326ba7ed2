package lmstfyx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldAck(t *testing.T) {
	assert.True(t, Succeed(nil).Action.ShouldAck())
	assert.True(t, Bury([]byte("{}")).Action.ShouldAck())
	assert.False(t, Release(nil).Action.ShouldAck())
	assert.False(t, JobRespStatus(42).ShouldAck())
	assert.Equal(t, "unknown", JobRespStatus(42).String())
	assert.Equal(t, "release", JobRespStatusRelease.String())
}
