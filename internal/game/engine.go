package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"duel-service/internal/constants"
	"duel-service/internal/models"
	"duel-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionStore is the engine's only persistence contract. Updates are
// version-conditional; a conflict means the single-writer guarantee broke.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.GameSession) error
	GetSession(ctx context.Context, id string) (*models.GameSession, error)
	UpdateSession(ctx context.Context, session *models.GameSession) error
	FindActiveByUser(ctx context.Context, userID string) (*models.GameSession, error)
	FindActiveSessions(ctx context.Context) ([]*models.GameSession, error)
}

// Notifier is the presence boundary: fire-and-forget delivery to a user's
// connections or to a session's broadcast group. Offline peers simply miss
// events.
type Notifier interface {
	SendToUser(userID, event string, payload any)
	SendToSession(sessionID, event string, payload any)
	JoinSession(sessionID string, userIDs ...string)
	ReleaseSession(sessionID string)
	Online(userID string) bool
}

type QuestionProvider interface {
	FetchQuestions(ctx context.Context, topic, difficulty string, count int, excludeTexts []string) ([]models.Question, error)
}

type FriendChecker interface {
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
}

// QuestionCache is optional; a nil cache or any cache error falls back to the
// questions stored on the session record.
type QuestionCache interface {
	Put(ctx context.Context, sessionID string, questions []models.Question) error
	Get(ctx context.Context, sessionID string) ([]models.Question, error)
}

// InvitePublisher is optional; used to reach invited players who have no live
// connection, via the external notification service.
type InvitePublisher interface {
	PublishInvitation(ctx context.Context, notice models.InvitationNotice) error
}

type Config struct {
	Store     SessionStore
	Directory *Directory
	Scheduler Scheduler
	Notifier  Notifier
	Questions QuestionProvider
	Friends   FriendChecker
	Cache     QuestionCache
	Invites   InvitePublisher
	Logger    *zap.Logger
}

// Engine drives a session from invitation through completion. Every operation
// runs a read-check-mutate-persist sequence under a per-session lock, so the
// two players' concurrent submissions and timer firings never interleave
// within one session. Different sessions proceed independently.
type Engine struct {
	store     SessionStore
	directory *Directory
	scheduler Scheduler
	notifier  Notifier
	questions QuestionProvider
	friends   FriendChecker
	cache     QuestionCache
	invites   InvitePublisher
	logger    *zap.Logger

	locks sessionLocks

	// now is swapped in tests to drive elapsed-time scoring.
	now func() time.Time
}

func NewEngine(cfg *Config) *Engine {
	return &Engine{
		store:     cfg.Store,
		directory: cfg.Directory,
		scheduler: cfg.Scheduler,
		notifier:  cfg.Notifier,
		questions: cfg.Questions,
		friends:   cfg.Friends,
		cache:     cfg.Cache,
		invites:   cfg.Invites,
		logger:    cfg.Logger,
		locks:     sessionLocks{m: make(map[string]*sync.Mutex)},
		now:       time.Now,
	}
}

type CreateParams struct {
	HostName   string
	GuestID    string
	Topic      string
	Difficulty string
	Rounds     int
}

// CreateGame validates the invitation, resolves stale sessions between the
// same pair, fetches the full question batch and persists a waiting session.
// No partial session is ever persisted: a question bank failure aborts before
// the first write.
func (e *Engine) CreateGame(ctx context.Context, hostID string, p CreateParams) (*models.GameSession, error) {
	if p.GuestID == "" {
		return nil, ErrMissingGuest
	}
	if p.GuestID == hostID {
		return nil, ErrSelfInvite
	}
	if p.Topic == "" {
		return nil, ErrMissingTopic
	}
	if p.Rounds < constants.MinRounds || p.Rounds > constants.MaxRounds {
		return nil, ErrInvalidRounds
	}
	switch p.Difficulty {
	case constants.DifficultyEasy, constants.DifficultyMedium, constants.DifficultyHard:
	default:
		return nil, ErrInvalidDifficulty
	}

	friends, err := e.friends.AreFriends(ctx, hostID, p.GuestID)
	if err != nil {
		return nil, fmt.Errorf("%w: friendship check: %v", ErrStore, err)
	}
	if !friends {
		return nil, ErrNotFriends
	}

	if err := e.resolveActiveConflicts(ctx, hostID, p.GuestID); err != nil {
		return nil, err
	}

	count := p.Rounds * constants.QuestionsPerRound
	questions, err := e.questions.FetchQuestions(ctx, p.Topic, p.Difficulty, count, nil)
	if err != nil {
		e.logger.Warn("question bank failure", zap.String("topic", p.Topic), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrQuestionBank, err)
	}

	now := e.now()
	session := &models.GameSession{
		ID:                "duel-" + uuid.NewString(),
		HostID:            hostID,
		GuestID:           p.GuestID,
		Topic:             p.Topic,
		Difficulty:        p.Difficulty,
		Rounds:            p.Rounds,
		QuestionsPerRound: constants.QuestionsPerRound,
		Status:            constants.SessionStatusWaiting,
		Questions:         questions,
		HostAnswers:       models.AnswerList{},
		GuestAnswers:      models.AnswerList{},
		CurrentRound:      1,
		CreatedAt:         now,
		ExpiresAt:         now.Add(constants.InvitationTTL),
		Version:           1,
	}

	if err := e.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.directory.Bind(session.ID, hostID, p.GuestID)
	e.notifier.JoinSession(session.ID, hostID, p.GuestID)

	if e.cache != nil {
		if err := e.cache.Put(ctx, session.ID, questions); err != nil {
			e.logger.Warn("failed to cache question batch", zap.String("session_id", session.ID), zap.Error(err))
		}
	}

	e.notifier.SendToUser(p.GuestID, constants.EventInvitation, InvitationPayload{
		SessionID:      session.ID,
		HostID:         hostID,
		HostName:       p.HostName,
		Topic:          p.Topic,
		Difficulty:     p.Difficulty,
		Rounds:         p.Rounds,
		TotalQuestions: count,
		ExpiresAt:      session.ExpiresAt,
	})
	if !e.notifier.Online(p.GuestID) {
		e.publishInvitationNotice(ctx, session, p.HostName)
	}

	e.notifier.SendToUser(hostID, constants.EventCreated, CreatedPayload{
		SessionID:      session.ID,
		GuestID:        p.GuestID,
		Topic:          p.Topic,
		Difficulty:     p.Difficulty,
		Rounds:         p.Rounds,
		TotalQuestions: count,
		ExpiresAt:      session.ExpiresAt,
	})

	e.logger.Info("game created",
		zap.String("session_id", session.ID),
		zap.String("host_id", hostID),
		zap.String("guest_id", p.GuestID),
		zap.String("topic", p.Topic),
		zap.Int("rounds", p.Rounds))

	return session, nil
}

// resolveActiveConflicts enforces the one-active-game invariant. A leftover
// session exclusively between the same pair is cancelled as stale; a session
// involving a third party blocks creation.
func (e *Engine) resolveActiveConflicts(ctx context.Context, hostID, guestID string) error {
	seen := map[string]bool{}
	for _, userID := range []string{hostID, guestID} {
		session, err := e.activeSessionOf(ctx, userID)
		if err != nil {
			return err
		}
		if session == nil || seen[session.ID] {
			continue
		}
		seen[session.ID] = true

		if !session.IsBetween(hostID, guestID) {
			if userID == hostID {
				return ErrHostBusy
			}
			return ErrGuestBusy
		}

		if err := e.cancelStale(ctx, session.ID); err != nil {
			return err
		}
	}
	return nil
}

// activeSessionOf resolves the user's current active session. The in-memory
// directory is checked first; a miss falls through to the store so the
// invariant holds even for sessions this instance never indexed. Dangling
// directory entries are dropped on the way.
func (e *Engine) activeSessionOf(ctx context.Context, userID string) (*models.GameSession, error) {
	if sessionID, ok := e.directory.Active(userID); ok {
		session, err := e.store.GetSession(ctx, sessionID)
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			e.directory.Unbind(sessionID, userID, userID)
		case err != nil:
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		case session.IsActive():
			return session, nil
		default:
			e.directory.Unbind(sessionID, session.HostID, session.GuestID)
		}
	}

	session, err := e.store.FindActiveByUser(ctx, userID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return session, nil
}

// cancelStale terminates a leftover session between the same pair so a fresh
// invitation can replace it.
func (e *Engine) cancelStale(ctx context.Context, sessionID string) error {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !session.IsActive() {
		return nil
	}

	session.Status = constants.SessionStatusCancelled
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.scheduler.Cancel(sessionID)
	e.directory.Unbind(sessionID, session.HostID, session.GuestID)
	e.notifier.SendToSession(sessionID, constants.EventCancelled, CancelledPayload{
		SessionID: sessionID,
		Reason:    "superseded by a new game",
	})
	e.cleanup(sessionID)

	e.logger.Info("stale session cancelled", zap.String("session_id", sessionID))
	return nil
}

// AcceptGame moves a waiting session to in_progress and schedules the first
// question after the fixed start delay.
func (e *Engine) AcceptGame(ctx context.Context, sessionID, userID string) error {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	session, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if userID != session.GuestID {
		return ErrNotInvited
	}
	if session.Status != constants.SessionStatusWaiting {
		return ErrWrongStatus
	}

	now := e.now()
	if now.After(session.ExpiresAt) {
		session.Status = constants.SessionStatusCancelled
		if err := e.store.UpdateSession(ctx, session); err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		e.directory.Unbind(sessionID, session.HostID, session.GuestID)
		e.notifier.SendToUser(session.HostID, constants.EventCancelled, CancelledPayload{
			SessionID: sessionID,
			Reason:    "invitation expired",
		})
		e.cleanup(sessionID)
		return ErrInvitationExpired
	}

	session.Status = constants.SessionStatusInProgress
	session.StartedAt = sql.NullTime{Time: now, Valid: true}
	session.CurrentQuestionIndex = 0
	session.CurrentRound = 1
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.notifier.JoinSession(sessionID, session.HostID, session.GuestID)
	e.notifier.SendToSession(sessionID, constants.EventStarted, StartedPayload{
		SessionID:      sessionID,
		HostID:         session.HostID,
		GuestID:        session.GuestID,
		Topic:          session.Topic,
		Rounds:         session.Rounds,
		TotalQuestions: session.TotalQuestions(),
		StartsInMs:     constants.StartDelay.Milliseconds(),
	})

	e.scheduler.Arm(sessionID, constants.StartDelay, func() {
		e.sendQuestion(sessionID, 0)
	})

	e.logger.Info("game started",
		zap.String("session_id", sessionID),
		zap.String("host_id", session.HostID),
		zap.String("guest_id", session.GuestID))
	return nil
}

// DeclineGame cancels a waiting session; only the invited guest may decline.
func (e *Engine) DeclineGame(ctx context.Context, sessionID, userID string) error {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	session, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if userID != session.GuestID {
		return ErrNotInvited
	}
	if session.Status != constants.SessionStatusWaiting {
		return ErrWrongStatus
	}

	session.Status = constants.SessionStatusCancelled
	if err := e.store.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.directory.Unbind(sessionID, session.HostID, session.GuestID)
	e.notifier.SendToUser(session.HostID, constants.EventDeclined, DeclinedPayload{
		SessionID: sessionID,
		GuestID:   userID,
	})
	e.cleanup(sessionID)

	e.logger.Info("game declined", zap.String("session_id", sessionID), zap.String("guest_id", userID))
	return nil
}

// SubmitAnswer records one player's answer for the current question. The
// opponent learns only that an answer arrived; content and correctness are
// withheld until the question resolves.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, userID, answer string) error {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	session, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsParticipant(userID) {
		return ErrNotParticipant
	}
	if session.Status != constants.SessionStatusInProgress {
		return ErrWrongStatus
	}

	idx := session.CurrentQuestionIndex
	if idx >= session.TotalQuestions() {
		return ErrWrongStatus
	}

	list := session.AnswersFor(userID)
	if list.Has(idx) {
		return ErrAlreadyAnswered
	}

	var elapsed time.Duration
	if session.QuestionStartTime.Valid {
		elapsed = e.now().Sub(session.QuestionStartTime.Time)
		if elapsed < 0 {
			elapsed = 0
		}
	}

	question := e.questionsFor(ctx, session)[idx]
	correct := answer == question.CorrectAnswer
	score := 0
	if correct {
		score = question.Points
		if elapsed < constants.SpeedBonusWindow {
			score++
		}
	}

	*list = append(*list, models.Answer{
		QuestionIndex: idx,
		Answer:        answer,
		IsCorrect:     correct,
		Score:         score,
		TimeSpentMs:   elapsed.Milliseconds(),
	})
	session.AddScore(userID, score)

	if err := e.store.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	e.notifier.SendToUser(session.OpponentOf(userID), constants.EventOpponentAnswered, OpponentAnsweredPayload{
		SessionID:     sessionID,
		QuestionIndex: idx,
	})

	e.logger.Debug("answer recorded",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
		zap.Int("question_index", idx),
		zap.Bool("correct", correct),
		zap.Int("score", score))

	if session.HostAnswers.Has(idx) && session.GuestAnswers.Has(idx) {
		e.scheduler.Cancel(sessionID)
		e.resolveQuestion(ctx, session)
	}
	return nil
}

// handleTimeout fires when the answer window closes. It is a no-op if the
// session already advanced: the question-index re-check is the defense
// against the race with a just-completed both-answered path, not timer
// cancellation.
func (e *Engine) handleTimeout(sessionID string, questionIndex int) {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	ctx := context.Background()
	session, err := e.loadSession(ctx, sessionID)
	if err != nil {
		e.logger.Warn("timeout fired for unloadable session", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if session.Status != constants.SessionStatusInProgress || session.CurrentQuestionIndex != questionIndex {
		e.logger.Debug("stale timeout ignored",
			zap.String("session_id", sessionID),
			zap.Int("fired_for", questionIndex),
			zap.Int("current", session.CurrentQuestionIndex))
		return
	}

	windowMs := constants.QuestionWindow.Milliseconds()
	for _, userID := range []string{session.HostID, session.GuestID} {
		list := session.AnswersFor(userID)
		if !list.Has(questionIndex) {
			*list = append(*list, models.Answer{
				QuestionIndex: questionIndex,
				Answer:        "",
				IsCorrect:     false,
				Score:         0,
				TimeSpentMs:   windowMs,
			})
		}
	}

	if err := e.store.UpdateSession(ctx, session); err != nil {
		e.logger.Error("failed to persist timeout answers", zap.String("session_id", sessionID), zap.Error(err))
		return
	}

	question := e.questionsFor(ctx, session)[questionIndex]
	e.notifier.SendToSession(sessionID, constants.EventTimeout, TimeoutPayload{
		SessionID:     sessionID,
		QuestionIndex: questionIndex,
		CorrectAnswer: question.CorrectAnswer,
	})

	e.logger.Info("question timed out", zap.String("session_id", sessionID), zap.Int("question_index", questionIndex))
	e.resolveQuestion(ctx, session)
}

// resolveQuestion reveals both answers and advances the cursor, finishing the
// game or crossing a round boundary as needed. Caller holds the session lock
// and has already persisted both answer entries.
func (e *Engine) resolveQuestion(ctx context.Context, session *models.GameSession) {
	idx := session.CurrentQuestionIndex
	question := e.questionsFor(ctx, session)[idx]

	hostAnswer, _ := session.HostAnswers.At(idx)
	guestAnswer, _ := session.GuestAnswers.At(idx)
	e.notifier.SendToSession(session.ID, constants.EventAnswerResult, AnswerResultPayload{
		SessionID:     session.ID,
		QuestionIndex: idx,
		CorrectAnswer: question.CorrectAnswer,
		Host:          playerResult(session.HostID, hostAnswer, session.HostScore),
		Guest:         playerResult(session.GuestID, guestAnswer, session.GuestScore),
	})

	if idx == session.TotalQuestions()-1 {
		e.finishGame(ctx, session, "", false)
		return
	}

	if (idx+1)%session.QuestionsPerRound == 0 {
		e.notifier.SendToSession(session.ID, constants.EventRoundResult, RoundResultPayload{
			SessionID:  session.ID,
			Round:      session.CurrentRound,
			HostScore:  session.HostScore,
			GuestScore: session.GuestScore,
		})
		session.CurrentRound++
	}

	session.CurrentQuestionIndex++
	session.QuestionStartTime = sql.NullTime{}
	if err := e.store.UpdateSession(ctx, session); err != nil {
		e.logger.Error("failed to advance question cursor", zap.String("session_id", session.ID), zap.Error(err))
		return
	}

	next := session.CurrentQuestionIndex
	e.scheduler.Arm(session.ID, constants.InterQuestionDelay, func() {
		e.sendQuestion(session.ID, next)
	})
}

// sendQuestion broadcasts the question at the given index and arms its answer
// window. Fired from a timer, so it re-validates state first.
func (e *Engine) sendQuestion(sessionID string, questionIndex int) {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	ctx := context.Background()
	session, err := e.loadSession(ctx, sessionID)
	if err != nil {
		e.logger.Warn("cannot send question", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if session.Status != constants.SessionStatusInProgress || session.CurrentQuestionIndex != questionIndex {
		return
	}
	if questionIndex >= session.TotalQuestions() {
		return
	}

	session.QuestionStartTime = sql.NullTime{Time: e.now(), Valid: true}
	if err := e.store.UpdateSession(ctx, session); err != nil {
		e.logger.Error("failed to stamp question start", zap.String("session_id", sessionID), zap.Error(err))
		return
	}

	question := e.questionsFor(ctx, session)[questionIndex]
	e.notifier.SendToSession(sessionID, constants.EventQuestion, QuestionPayload{
		SessionID:      sessionID,
		QuestionIndex:  questionIndex,
		Round:          session.CurrentRound,
		Text:           question.Text,
		Options:        question.Options,
		TimeLimitMs:    constants.QuestionWindow.Milliseconds(),
		TotalQuestions: session.TotalQuestions(),
		HostScore:      session.HostScore,
		GuestScore:     session.GuestScore,
	})

	e.scheduler.Arm(sessionID, constants.QuestionWindow, func() {
		e.handleTimeout(sessionID, questionIndex)
	})
}

// LeaveGame cancels a waiting session or forfeits an in-progress one. This is
// the designed escape hatch for disconnection: it always lands the session in
// a terminal state.
func (e *Engine) LeaveGame(ctx context.Context, sessionID, userID string) error {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	session, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsParticipant(userID) {
		return ErrNotParticipant
	}

	switch session.Status {
	case constants.SessionStatusWaiting:
		session.Status = constants.SessionStatusCancelled
		if err := e.store.UpdateSession(ctx, session); err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		e.directory.Unbind(sessionID, session.HostID, session.GuestID)
		e.notifier.SendToUser(session.OpponentOf(userID), constants.EventCancelled, CancelledPayload{
			SessionID: sessionID,
			By:        userID,
		})
		e.cleanup(sessionID)
		e.logger.Info("waiting game abandoned", zap.String("session_id", sessionID), zap.String("user_id", userID))
		return nil

	case constants.SessionStatusInProgress:
		e.scheduler.Cancel(sessionID)
		e.finishGame(ctx, session, userID, true)
		return nil

	default:
		return ErrWrongStatus
	}
}

// finishGame is terminal for both the natural and the forfeit path. Caller
// holds the session lock. On forfeit the remaining player wins regardless of
// score; otherwise the higher score wins and an exact tie is a draw.
func (e *Engine) finishGame(ctx context.Context, session *models.GameSession, forfeitedBy string, forfeit bool) {
	session.Status = constants.SessionStatusCompleted
	session.CompletedAt = sql.NullTime{Time: e.now(), Valid: true}

	draw := false
	if forfeit {
		session.WinnerID = session.OpponentOf(forfeitedBy)
	} else {
		switch {
		case session.HostScore > session.GuestScore:
			session.WinnerID = session.HostID
		case session.GuestScore > session.HostScore:
			session.WinnerID = session.GuestID
		default:
			session.WinnerID = ""
			draw = true
		}
	}

	if err := e.store.UpdateSession(ctx, session); err != nil {
		// Not applied: no success notification may go out.
		e.logger.Error("failed to persist game completion", zap.String("session_id", session.ID), zap.Error(err))
		return
	}

	e.notifier.SendToSession(session.ID, constants.EventFinished, FinishedPayload{
		SessionID:   session.ID,
		HostID:      session.HostID,
		GuestID:     session.GuestID,
		HostScore:   session.HostScore,
		GuestScore:  session.GuestScore,
		WinnerID:    session.WinnerID,
		Draw:        draw,
		Forfeit:     forfeit,
		ForfeitedBy: forfeitedBy,
	})

	e.scheduler.Cancel(session.ID)
	e.directory.Unbind(session.ID, session.HostID, session.GuestID)
	e.cleanup(session.ID)

	e.logger.Info("game finished",
		zap.String("session_id", session.ID),
		zap.Int("host_score", session.HostScore),
		zap.Int("guest_score", session.GuestScore),
		zap.String("winner_id", session.WinnerID),
		zap.Bool("forfeit", forfeit))
}

// RestoreDirectory rebuilds the active-session index after a restart so the
// one-active-game invariant survives. Expired waiting sessions are cancelled;
// in-progress sessions get their answer window re-armed with the remaining
// time.
func (e *Engine) RestoreDirectory(ctx context.Context) error {
	sessions, err := e.store.FindActiveSessions(ctx)
	if err != nil {
		return err
	}

	now := e.now()
	for _, session := range sessions {
		if session.Status == constants.SessionStatusWaiting && now.After(session.ExpiresAt) {
			session.Status = constants.SessionStatusCancelled
			if err := e.store.UpdateSession(ctx, session); err != nil {
				e.logger.Warn("failed to cancel expired invitation", zap.String("session_id", session.ID), zap.Error(err))
			}
			continue
		}

		e.directory.Bind(session.ID, session.HostID, session.GuestID)
		e.notifier.JoinSession(session.ID, session.HostID, session.GuestID)

		if session.Status == constants.SessionStatusInProgress && session.QuestionStartTime.Valid {
			sessionID := session.ID
			index := session.CurrentQuestionIndex
			remaining := constants.QuestionWindow - now.Sub(session.QuestionStartTime.Time)
			if remaining < time.Second {
				remaining = time.Second
			}
			e.scheduler.Arm(sessionID, remaining, func() {
				e.handleTimeout(sessionID, index)
			})
		}
	}

	e.logger.Info("session directory restored", zap.Int("active_sessions", len(sessions)))
	return nil
}

func (e *Engine) loadSession(ctx context.Context, sessionID string) (*models.GameSession, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return session, nil
}

// questionsFor prefers the cached batch and falls back to the session record.
func (e *Engine) questionsFor(ctx context.Context, session *models.GameSession) []models.Question {
	if e.cache != nil {
		if questions, err := e.cache.Get(ctx, session.ID); err == nil && len(questions) == session.TotalQuestions() {
			return questions
		}
	}
	return session.Questions
}

func (e *Engine) publishInvitationNotice(ctx context.Context, session *models.GameSession, hostName string) {
	if e.invites == nil {
		return
	}
	from := hostName
	if from == "" {
		from = session.HostID
	}
	err := e.invites.PublishInvitation(ctx, models.InvitationNotice{
		UserID:     session.GuestID,
		Title:      "Quiz battle invitation",
		Message:    fmt.Sprintf("%s challenged you on %q", from, session.Topic),
		SessionID:  session.ID,
		HostID:     session.HostID,
		HostName:   hostName,
		Topic:      session.Topic,
		Difficulty: session.Difficulty,
	})
	if err != nil {
		e.logger.Warn("failed to publish invitation notice", zap.String("session_id", session.ID), zap.Error(err))
	}
}

// cleanup drops per-session engine state once the session is terminal.
func (e *Engine) cleanup(sessionID string) {
	e.notifier.ReleaseSession(sessionID)
	e.locks.release(sessionID)
}

func playerResult(userID string, answer models.Answer, totalScore int) PlayerResult {
	return PlayerResult{
		UserID:      userID,
		Answer:      answer.Answer,
		IsCorrect:   answer.IsCorrect,
		Score:       answer.Score,
		TimeSpentMs: answer.TimeSpentMs,
		TotalScore:  totalScore,
	}
}

// sessionLocks serializes engine operations per session id. Entries are
// dropped on terminal transition; any operation that slips through afterwards
// re-reads a terminal status and rejects, so a fresh mutex is harmless.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (s *sessionLocks) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.m[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.m[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *sessionLocks) release(sessionID string) {
	s.mu.Lock()
	delete(s.m, sessionID)
	s.mu.Unlock()
}
