package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/placement-client/internal/answers"
	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/model"
	"github.com/stemsi/placement-client/internal/storage"
	"github.com/stemsi/placement-client/internal/timer"
)

// Steps are the six linear screens of the test, in order.
var Steps = []string{
	"Student Profile",
	"Question (1 - 6)",
	"Question (7 - 12)",
	"Question (13 - 18)",
	"Question (19 - 24)",
	"Writing Task",
}

// PageSize is the number of questions per page.
const PageSize = 6

// ErrNoSession reports absent session identifiers: the test screen was
// entered without a completed profile intake. Terminal for the controller;
// the caller reports it, no retry.
var ErrNoSession = errors.New("missing session identifiers: student_id or set_question")

// QuestionLister is the backend operation the controller consumes.
type QuestionLister interface {
	ListQuestions(ctx context.Context, studentID, setQuestion string) ([]model.Question, error)
}

// Controller orchestrates the question screens: loading, pagination, answer
// capture and the hand-off to the writing task.
type Controller struct {
	api       QuestionLister
	store     storage.Store
	countdown *timer.Countdown
	answers   *answers.Store
	log       zerolog.Logger

	questions []model.Question
	page      int
	noSession bool
}

func NewController(api QuestionLister, store storage.Store, countdown *timer.Countdown, ans *answers.Store, log zerolog.Logger) *Controller {
	return &Controller{
		api:       api,
		store:     store,
		countdown: countdown,
		answers:   ans,
		log:       log.With().Str("component", "test_flow").Logger(),
		page:      1,
	}
}

// LoadQuestions fetches the session's question set once. Both session
// identifiers must already be persisted; missing either is terminal
// (ErrNoSession). A failed fetch leaves zero questions and is not retried.
func (c *Controller) LoadQuestions(ctx context.Context) error {
	studentID, ok1, err1 := c.store.Get(ctx, config.StorageKey.StudentID)
	setQuestion, ok2, err2 := c.store.Get(ctx, config.StorageKey.SetQuestion)
	if err1 != nil || err2 != nil || !ok1 || !ok2 || studentID == "" || setQuestion == "" {
		c.noSession = true
		c.log.Error().Msg("Missing student_id or set_question, cannot load questions")
		return ErrNoSession
	}

	questions, err := c.api.ListQuestions(ctx, studentID, setQuestion)
	if err != nil {
		c.questions = nil
		c.log.Error().Err(err).Msg("Loading questions failed")
		return fmt.Errorf("load questions: %w", err)
	}

	c.questions = questions
	c.log.Info().Int("count", len(questions)).Msg("Questions loaded")
	return nil
}

// NoSession reports the terminal missing-identifiers state.
func (c *Controller) NoSession() bool {
	return c.noSession
}

// Questions returns the full loaded question set.
func (c *Controller) Questions() []model.Question {
	return c.questions
}

// Paginated returns the questions of the current page.
func (c *Controller) Paginated() []model.Question {
	start := (c.page - 1) * PageSize
	if start >= len(c.questions) {
		return nil
	}
	end := start + PageSize
	if end > len(c.questions) {
		end = len(c.questions)
	}
	return c.questions[start:end]
}

// TotalPages returns the page count for the loaded set.
func (c *Controller) TotalPages() int {
	return (len(c.questions) + PageSize - 1) / PageSize
}

// EndIndex returns the 1-based index of the last question on the current
// page, for the "showing m–n" readout.
func (c *Controller) EndIndex() int {
	end := c.page * PageSize
	if end > len(c.questions) {
		end = len(c.questions)
	}
	return end
}

// CurrentPage returns the 1-based current question page.
func (c *Controller) CurrentPage() int {
	return c.page
}

// CurrentStep returns the stepper position for the current page.
func (c *Controller) CurrentStep() int {
	return c.page
}

// NextPage advances within the question pages. From the last page it instead
// persists the timer and reports the hand-off to the writing task.
func (c *Controller) NextPage(ctx context.Context) (toWriting bool) {
	total := c.TotalPages()
	if c.page < total {
		c.page++
		return false
	}
	if total > 0 && c.page == total {
		c.countdown.Persist(ctx)
		return true
	}
	return false
}

// PrevPage steps back one page, never below page 1.
func (c *Controller) PrevPage() {
	if c.page > 1 {
		c.page--
	}
}

// SelectAnswer records a choice for a question on the current page.
func (c *Controller) SelectAnswer(ctx context.Context, questionID, answerID int) {
	c.answers.Select(ctx, questionID, answerID)
}

// IsSelected reports whether answerID is the recorded choice for questionID.
func (c *Controller) IsSelected(questionID, answerID int) bool {
	return c.answers.IsSelected(questionID, answerID)
}
