package game

import "errors"

// Rejections are grouped by kind: validation and authorization
// errors never touch state, conflict errors leave state untouched, upstream
// and infrastructure errors abort the triggering operation. All of them are
// reported to the initiating caller only.
var (
	// validation
	ErrInvalidRounds     = errors.New("rounds must be between 1 and 3")
	ErrInvalidDifficulty = errors.New("difficulty must be easy, medium or hard")
	ErrMissingTopic      = errors.New("topic is required")
	ErrMissingGuest      = errors.New("guest is required")
	ErrSelfInvite        = errors.New("cannot invite yourself")
	ErrEmptyAnswer       = errors.New("answer is required")

	// authorization
	ErrNotFriends     = errors.New("players are not friends")
	ErrNotInvited     = errors.New("only the invited player may respond to this invitation")
	ErrNotParticipant = errors.New("not a participant of this game")

	// conflict
	ErrSessionNotFound   = errors.New("game not found")
	ErrHostBusy          = errors.New("you already have an active game")
	ErrGuestBusy         = errors.New("opponent already has an active game")
	ErrWrongStatus       = errors.New("game is not in the expected status")
	ErrAlreadyAnswered   = errors.New("answer already submitted for this question")
	ErrInvitationExpired = errors.New("invitation has expired")

	// upstream / infrastructure
	ErrQuestionBank = errors.New("failed to prepare questions")
	ErrStore        = errors.New("failed to persist game state")
)

var userFacing = []error{
	ErrInvalidRounds, ErrInvalidDifficulty, ErrMissingTopic, ErrMissingGuest,
	ErrSelfInvite, ErrEmptyAnswer,
	ErrNotFriends, ErrNotInvited, ErrNotParticipant,
	ErrSessionNotFound, ErrHostBusy, ErrGuestBusy, ErrWrongStatus, ErrAlreadyAnswered,
	ErrInvitationExpired,
	ErrQuestionBank,
}

// UserMessage maps an engine error to the text sent on game:error. Anything
// outside the designed taxonomy is reported generically so internal details
// never reach clients.
func UserMessage(err error) string {
	for _, known := range userFacing {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}
