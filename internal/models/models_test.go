package models

import (
	"testing"

	"duel-service/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionParticipants(t *testing.T) {
	s := &GameSession{HostID: "u1", GuestID: "u2"}

	assert.True(t, s.IsParticipant("u1"))
	assert.True(t, s.IsParticipant("u2"))
	assert.False(t, s.IsParticipant("u3"))

	assert.Equal(t, "u2", s.OpponentOf("u1"))
	assert.Equal(t, "u1", s.OpponentOf("u2"))
	assert.Empty(t, s.OpponentOf("u3"))

	assert.True(t, s.IsBetween("u1", "u2"))
	assert.True(t, s.IsBetween("u2", "u1"))
	assert.False(t, s.IsBetween("u1", "u3"))
}

func TestAnswersForAppendsInPlace(t *testing.T) {
	s := &GameSession{HostID: "u1", GuestID: "u2"}

	list := s.AnswersFor("u1")
	require.NotNil(t, list)
	*list = append(*list, Answer{QuestionIndex: 0, Score: 4})

	assert.True(t, s.HostAnswers.Has(0))
	assert.False(t, s.GuestAnswers.Has(0))
	assert.Nil(t, s.AnswersFor("u3"))

	entry, ok := s.HostAnswers.At(0)
	require.True(t, ok)
	assert.Equal(t, 4, entry.Score)

	_, ok = s.HostAnswers.At(1)
	assert.False(t, ok)
}

func TestScoreAndStatusHelpers(t *testing.T) {
	s := &GameSession{HostID: "u1", GuestID: "u2", Status: constants.SessionStatusWaiting}

	s.AddScore("u1", 4)
	s.AddScore("u2", 2)
	s.AddScore("u3", 9)
	assert.Equal(t, 4, s.HostScore)
	assert.Equal(t, 2, s.GuestScore)

	assert.True(t, s.IsActive())
	assert.False(t, s.IsTerminal())

	s.Status = constants.SessionStatusCompleted
	assert.False(t, s.IsActive())
	assert.True(t, s.IsTerminal())
}
