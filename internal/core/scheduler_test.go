package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerSelect(t *testing.T) {
	cfg := &Config{Projects: []ProjectSpec{{Name: "b"}, {Name: "a"}, {Name: "c"}}}
	s := NewScheduler()

	all, err := s.Select(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, cfg.Projects, all)

	one, err := s.Select(cfg, "a")
	require.NoError(t, err)
	assert.Equal(t, []ProjectSpec{{Name: "a"}}, one)

	_, err = s.Select(cfg, "A")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}
