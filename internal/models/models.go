package models

import (
	"database/sql"
	"time"

	"duel-service/internal/constants"
)

// GameSession is the aggregate root for one head-to-head match. It is mutated
// only by the game engine and persisted as a whole through the session store.
type GameSession struct {
	ID                   string
	HostID               string
	GuestID              string
	Topic                string
	Difficulty           string // "easy", "medium", "hard"
	Rounds               int
	QuestionsPerRound    int
	Status               string // "waiting", "in_progress", "completed", "cancelled"
	Questions            []Question
	HostAnswers          AnswerList
	GuestAnswers         AnswerList
	CurrentQuestionIndex int
	CurrentRound         int
	HostScore            int
	GuestScore           int
	WinnerID             string // empty until completion; empty on a draw
	QuestionStartTime    sql.NullTime
	CreatedAt            time.Time
	StartedAt            sql.NullTime
	CompletedAt          sql.NullTime
	ExpiresAt            time.Time

	// Version guards the read-modify-write cycle; every persisted update
	// increments it and fails if the stored row moved underneath.
	Version int
}

type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        int      `json:"points"`
}

// Answer records one player's submission for one question index. At most one
// entry per index per player; the engine enforces this, not the store.
type Answer struct {
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer"`
	IsCorrect     bool   `json:"is_correct"`
	Score         int    `json:"score"`
	TimeSpentMs   int64  `json:"time_spent_ms"`
}

type AnswerList []Answer

func (l AnswerList) Has(questionIndex int) bool {
	_, ok := l.At(questionIndex)
	return ok
}

func (l AnswerList) At(questionIndex int) (Answer, bool) {
	for _, a := range l {
		if a.QuestionIndex == questionIndex {
			return a, true
		}
	}
	return Answer{}, false
}

func (s *GameSession) TotalQuestions() int {
	return len(s.Questions)
}

func (s *GameSession) IsParticipant(userID string) bool {
	return userID == s.HostID || userID == s.GuestID
}

// OpponentOf returns the other participant, or "" for a non-participant.
func (s *GameSession) OpponentOf(userID string) string {
	switch userID {
	case s.HostID:
		return s.GuestID
	case s.GuestID:
		return s.HostID
	}
	return ""
}

// AnswersFor returns a pointer to the caller's answer list so the engine can
// append in place. Returns nil for a non-participant.
func (s *GameSession) AnswersFor(userID string) *AnswerList {
	switch userID {
	case s.HostID:
		return &s.HostAnswers
	case s.GuestID:
		return &s.GuestAnswers
	}
	return nil
}

func (s *GameSession) AddScore(userID string, points int) {
	switch userID {
	case s.HostID:
		s.HostScore += points
	case s.GuestID:
		s.GuestScore += points
	}
}

func (s *GameSession) IsActive() bool {
	return s.Status == constants.SessionStatusWaiting || s.Status == constants.SessionStatusInProgress
}

func (s *GameSession) IsTerminal() bool {
	return s.Status == constants.SessionStatusCompleted || s.Status == constants.SessionStatusCancelled
}

// IsBetween reports whether the session is exclusively between the two given
// players, in either host/guest orientation.
func (s *GameSession) IsBetween(a, b string) bool {
	return (s.HostID == a && s.GuestID == b) || (s.HostID == b && s.GuestID == a)
}

// InvitationNotice is the payload handed to the notification queue when the
// invited guest has no live connection.
type InvitationNotice struct {
	UserID     string `json:"user_id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	SessionID  string `json:"session_id"`
	HostID     string `json:"host_id"`
	HostName   string `json:"host_name"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}
