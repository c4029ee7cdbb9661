package constants

import "time"

const (
	SessionStatusWaiting    = "waiting"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusCancelled  = "cancelled"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	QuestionsPerRound  = 5
	MinRounds          = 1
	MaxRounds          = 3
	MinPoints          = 1
	MaxPoints          = 5
	OptionsPerQuestion = 3
)

const (
	// InvitationTTL bounds how long a waiting session may sit unaccepted.
	InvitationTTL = 5 * time.Minute

	// StartDelay is the pause between acceptance and the first question.
	StartDelay = 3 * time.Second

	// QuestionWindow is the answer window armed for every question.
	QuestionWindow = 20 * time.Second

	// InterQuestionDelay separates a resolved question from the next one.
	InterQuestionDelay = 3 * time.Second

	// SpeedBonusWindow is the cutoff for the +1 fast-answer bonus.
	SpeedBonusWindow = 5 * time.Second
)

// Client -> Server
const (
	EventCreate  = "game:create"
	EventAccept  = "game:accept"
	EventDecline = "game:decline"
	EventAnswer  = "game:answer"
	EventLeave   = "game:leave"
)

// Server -> Client
const (
	EventCreated          = "game:created"
	EventInvitation       = "game:invitation"
	EventStarted          = "game:started"
	EventDeclined         = "game:declined"
	EventCancelled        = "game:cancelled"
	EventQuestion         = "game:question"
	EventOpponentAnswered = "game:opponent_answered"
	EventAnswerResult     = "game:answer_result"
	EventRoundResult      = "game:round_result"
	EventTimeout          = "game:timeout"
	EventFinished         = "game:finished"
	EventError            = "game:error"
)

const NotificationQueue = "notifications"
