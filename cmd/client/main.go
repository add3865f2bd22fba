package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/placement-client/internal/answers"
	"github.com/stemsi/placement-client/internal/api"
	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/draft"
	"github.com/stemsi/placement-client/internal/flow"
	"github.com/stemsi/placement-client/internal/intake"
	"github.com/stemsi/placement-client/internal/logger"
	"github.com/stemsi/placement-client/internal/model"
	"github.com/stemsi/placement-client/internal/storage"
	"github.com/stemsi/placement-client/internal/submission"
	"github.com/stemsi/placement-client/internal/timer"
	"github.com/stemsi/placement-client/internal/validator"
)

// errQuit signals a user-requested exit. The suspended screen has already
// persisted its state by the time it propagates.
var errQuit = errors.New("quit")

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("api", cfg.APIBaseURL).
		Str("storage", cfg.StorageBackend).
		Msg("Starting Placement Test Client")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx := context.Background()

	// ─── Open State Storage ────────────────────────────────────────────
	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open state storage")
	}
	defer store.Close()

	apiClient := api.New(cfg, log)
	reader := bufio.NewReader(os.Stdin)

	// Resume a session in progress: a seeded student id means the profile
	// screen is already behind us.
	if _, ok, _ := store.Get(ctx, config.StorageKey.StudentID); !ok {
		if err := profileScreen(ctx, reader, intake.New(apiClient, store, log)); err != nil {
			log.Fatal().Err(err).Msg("Profile intake failed")
		}
	} else {
		fmt.Println("Resuming test session in progress.")
	}

	for {
		if err := testScreen(ctx, reader, cfg, store, apiClient, log); err != nil {
			if errors.Is(err, errQuit) {
				log.Info().Msg("Session suspended, state persisted")
				return
			}
			log.Fatal().Err(err).Msg("Test screen failed")
		}

		done, err := writingScreen(ctx, reader, cfg, store, apiClient, log)
		if err != nil {
			if errors.Is(err, errQuit) {
				log.Info().Msg("Session suspended, state persisted")
				return
			}
			log.Fatal().Err(err).Msg("Writing screen failed")
		}
		if done {
			break
		}
		// Back-navigation to the question pages.
	}

	resultScreen()
}

// ─── Profile Screen ────────────────────────────────────────────────────────

func profileScreen(ctx context.Context, reader *bufio.Reader, in *intake.Intake) error {
	fmt.Println("=== Student Profile ===")

	for {
		profile := model.StudentProfile{
			Name:  prompt(reader, "Name: "),
			Email: prompt(reader, "Email: "),
			Phone: prompt(reader, "Phone: "),
		}
		if age, err := strconv.Atoi(prompt(reader, "Age: ")); err == nil {
			profile.Age = age
		}

		_, err := in.Submit(ctx, profile)
		if err == nil {
			return nil
		}

		var ve *intake.ValidationError
		if errors.As(err, &ve) {
			fmt.Println("Please complete all required fields:")
			for field, msg := range ve.Fields {
				fmt.Printf("  - %s: %s\n", field, msg)
			}
			continue
		}

		fmt.Println("Failed to submit data. Press Enter to try again.")
		reader.ReadString('\n')
	}
}

// ─── Question Screens ──────────────────────────────────────────────────────

func testScreen(ctx context.Context, reader *bufio.Reader, cfg *config.Config, store storage.Store, apiClient *api.Client, log zerolog.Logger) error {
	countdown := timer.New(store, config.StorageKey.TimerRemaining, cfg.TimerDuration, log)
	countdown.Restore(ctx)

	ans := answers.New(store, log)
	ans.Restore(ctx)

	ctrl := flow.NewController(apiClient, store, countdown, ans, log)
	if err := ctrl.LoadQuestions(ctx); err != nil {
		if errors.Is(err, flow.ErrNoSession) {
			fmt.Println("No session data found. Please fill in the student profile first.")
			return err
		}
		// Failed fetch: zero questions, no retry.
		fmt.Println("Could not load questions.")
	}

	tickCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	countdown.Start(tickCtx)
	go watchTicks(tickCtx, countdown)

	// Persist on every way out of this screen.
	defer countdown.Persist(ctx)
	defer countdown.Stop()

	for {
		renderPage(ctrl, countdown)

		input := prompt(reader, "> ")
		switch {
		case input == "n":
			if ctrl.NextPage(ctx) {
				return nil // hand-off to the writing task
			}
		case input == "p":
			ctrl.PrevPage()
		case input == "q":
			return errQuit
		default:
			selectAnswer(ctx, reader, ctrl, input)
		}
	}
}

func renderPage(ctrl *flow.Controller, countdown *timer.Countdown) {
	fmt.Printf("\n=== %s ===  [time left %s]\n", flow.Steps[ctrl.CurrentStep()], countdown.Formatted())

	page := ctrl.Paginated()
	if len(page) == 0 {
		fmt.Println("No questions to display.")
	}
	base := (ctrl.CurrentPage() - 1) * flow.PageSize
	for i, q := range page {
		fmt.Printf("%2d. %s\n", base+i+1, q.Question)
		for _, choice := range q.Answers {
			marker := " "
			if ctrl.IsSelected(q.ID, choice.ID) {
				marker = "*"
			}
			fmt.Printf("     [%s] %d) %s\n", marker, choice.ID, choice.Answer)
		}
	}
	fmt.Println("Enter a question number to answer, n = next page, p = previous page, q = suspend.")
}

func selectAnswer(ctx context.Context, reader *bufio.Reader, ctrl *flow.Controller, input string) {
	num, err := strconv.Atoi(input)
	if err != nil {
		fmt.Println("Unrecognized input.")
		return
	}

	idx := num - 1 - (ctrl.CurrentPage()-1)*flow.PageSize
	page := ctrl.Paginated()
	if idx < 0 || idx >= len(page) {
		fmt.Println("That question is not on this page.")
		return
	}
	question := page[idx]

	choice, err := strconv.Atoi(prompt(reader, "Choice id: "))
	if err != nil {
		fmt.Println("Unrecognized choice.")
		return
	}
	for _, c := range question.Answers {
		if c.ID == choice {
			ctrl.SelectAnswer(ctx, question.ID, choice)
			return
		}
	}
	fmt.Println("That choice does not belong to the question.")
}

// watchTicks consumes the re-render signal and warns near and at expiry.
func watchTicks(ctx context.Context, countdown *timer.Countdown) {
	for {
		select {
		case <-ctx.Done():
			return
		case remaining := <-countdown.Ticks():
			switch remaining {
			case 60:
				fmt.Println("\n[One minute remaining]")
			case 0:
				fmt.Println("\n[Time is up]")
			}
		}
	}
}

// ─── Writing Screen ────────────────────────────────────────────────────────

func writingScreen(ctx context.Context, reader *bufio.Reader, cfg *config.Config, store storage.Store, apiClient *api.Client, log zerolog.Logger) (bool, error) {
	countdown := timer.New(store, config.StorageKey.TimerRemaining, cfg.TimerDuration, log)
	countdown.Restore(ctx)

	tickCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	countdown.Start(tickCtx)

	defer countdown.Persist(ctx)
	defer countdown.Stop()

	drafts := draft.New(store, log)
	assembler := submission.NewAssembler(apiClient, store, log)
	text := drafts.Load(ctx)

	fmt.Printf("\n=== %s ===  [time left %s]\n", flow.Steps[5], countdown.Formatted())
	fmt.Println("Type your text line by line. Commands: :finish to submit, :back for the questions, :show to review, :quit to suspend.")

	for {
		line := prompt(reader, "| ")
		switch line {
		case ":back":
			drafts.Save(ctx, text)
			return false, nil
		case ":quit":
			drafts.Save(ctx, text)
			return false, errQuit
		case ":show":
			fmt.Println(text)
		case ":finish":
			drafts.Save(ctx, text)
			if finish(ctx, assembler, text) {
				return true, nil
			}
		default:
			if text != "" {
				text += "\n"
			}
			text += line
			drafts.Save(ctx, text)
		}
	}
}

// finish assembles and submits once. Failures leave all persisted state
// intact; the user decides whether to try again.
func finish(ctx context.Context, assembler *submission.Assembler, text string) bool {
	payload, err := assembler.Assemble(ctx, text)
	if err != nil {
		if errors.Is(err, submission.ErrNoAnswers) {
			fmt.Println("No answers found. Please complete the test first.")
		} else {
			fmt.Println("Failed to process your answers. Please try again.")
		}
		return false
	}

	if err := assembler.Submit(ctx, payload); err != nil {
		fmt.Println("An error occurred while submitting your answers. Please try again.")
		return false
	}

	fmt.Println("Your answers have been submitted successfully.")
	return true
}

// ─── Result Screen ─────────────────────────────────────────────────────────

func resultScreen() {
	fmt.Println("\n=== Test Complete ===")
	fmt.Println("Thank you. Your placement test has been recorded.")
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
