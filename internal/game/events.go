package game

import "time"

// Payloads for server -> client events. The wire envelope lives in the
// websocket package; the engine only decides what each party may see. Question
// payloads never carry the correct answer; it is revealed only on resolution.

type CreatedPayload struct {
	SessionID      string    `json:"session_id"`
	GuestID        string    `json:"guest_id"`
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty"`
	Rounds         int       `json:"rounds"`
	TotalQuestions int       `json:"total_questions"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type InvitationPayload struct {
	SessionID      string    `json:"session_id"`
	HostID         string    `json:"host_id"`
	HostName       string    `json:"host_name,omitempty"`
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty"`
	Rounds         int       `json:"rounds"`
	TotalQuestions int       `json:"total_questions"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type StartedPayload struct {
	SessionID      string `json:"session_id"`
	HostID         string `json:"host_id"`
	GuestID        string `json:"guest_id"`
	Topic          string `json:"topic"`
	Rounds         int    `json:"rounds"`
	TotalQuestions int    `json:"total_questions"`
	StartsInMs     int64  `json:"starts_in_ms"`
}

type DeclinedPayload struct {
	SessionID string `json:"session_id"`
	GuestID   string `json:"guest_id"`
}

type CancelledPayload struct {
	SessionID string `json:"session_id"`
	By        string `json:"by,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type QuestionPayload struct {
	SessionID      string   `json:"session_id"`
	QuestionIndex  int      `json:"question_index"`
	Round          int      `json:"round"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	TimeLimitMs    int64    `json:"time_limit_ms"`
	TotalQuestions int      `json:"total_questions"`
	HostScore      int      `json:"host_score"`
	GuestScore     int      `json:"guest_score"`
}

type OpponentAnsweredPayload struct {
	SessionID     string `json:"session_id"`
	QuestionIndex int    `json:"question_index"`
}

type PlayerResult struct {
	UserID      string `json:"user_id"`
	Answer      string `json:"answer"`
	IsCorrect   bool   `json:"is_correct"`
	Score       int    `json:"score"`
	TimeSpentMs int64  `json:"time_spent_ms"`
	TotalScore  int    `json:"total_score"`
}

type AnswerResultPayload struct {
	SessionID     string       `json:"session_id"`
	QuestionIndex int          `json:"question_index"`
	CorrectAnswer string       `json:"correct_answer"`
	Host          PlayerResult `json:"host"`
	Guest         PlayerResult `json:"guest"`
}

type RoundResultPayload struct {
	SessionID  string `json:"session_id"`
	Round      int    `json:"round"`
	HostScore  int    `json:"host_score"`
	GuestScore int    `json:"guest_score"`
}

type TimeoutPayload struct {
	SessionID     string `json:"session_id"`
	QuestionIndex int    `json:"question_index"`
	CorrectAnswer string `json:"correct_answer"`
}

type FinishedPayload struct {
	SessionID   string `json:"session_id"`
	HostID      string `json:"host_id"`
	GuestID     string `json:"guest_id"`
	HostScore   int    `json:"host_score"`
	GuestScore  int    `json:"guest_score"`
	WinnerID    string `json:"winner_id,omitempty"`
	Draw        bool   `json:"draw"`
	Forfeit     bool   `json:"forfeit"`
	ForfeitedBy string `json:"forfeited_by,omitempty"`
}
