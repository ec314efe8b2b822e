// Command exam-client runs one timed exam attempt in the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pupilnest/pupilnest-backend/internal/apiclient"
	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/examsession"
	"github.com/pupilnest/pupilnest-backend/internal/logger"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func main() {
	configPath := flag.String("config", "exam-client.yaml", "session config file (optional)")
	userName := flag.String("user", "", "user name (prompted when empty)")
	subjectID := flag.Int("subject", 0, "subject id (chosen interactively when 0)")
	count := flag.Int("count", 10, "number of questions")
	flag.Parse()

	cfg, err := config.LoadSessionConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log := logger.SetupWriter(cfg.LogLevel, "pretty", os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(cfg, apiclient.WithLogger(log))
	input := bufio.NewReader(os.Stdin)

	// ─── Login ─────────────────────────────────────────────────────────
	if *userName == "" {
		*userName = prompt(input, "User name: ")
	}
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "read password:", err)
		os.Exit(1)
	}

	login, err := client.Login(ctx, *userName, string(password))
	if err != nil {
		fmt.Fprintln(os.Stderr, "login failed:", describe(err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Logout(context.Background()); err != nil {
			log.Debug().Err(err).Msg("Logout failed")
		}
	}()
	fmt.Printf("Welcome, %s.\n", login.Student.Name)

	// ─── Subject ───────────────────────────────────────────────────────
	if *subjectID == 0 {
		*subjectID, err = chooseSubject(ctx, client, input)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
	}

	// ─── Session ───────────────────────────────────────────────────────
	out := newScreen(os.Stdout)
	ctrl := examsession.New(cfg, examsession.Params{
		SubjectID: *subjectID,
		ClassID:   login.Student.ClassID,
		Count:     *count,
		StudentID: login.Student.ID,
	}, client, client,
		examsession.WithLogger(log),
		examsession.WithListener(out.handle),
	)

	if err := ctrl.Start(ctx); err != nil {
		// The listener already reported the abort.
		return
	}

	lines := make(chan string)
	go func() {
		for {
			line, err := input.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- line
		}
	}()

	for {
		select {
		case <-ctrl.Done():
			if ctrl.State() == examsession.StateCompleted {
				showHistory(ctx, client, *subjectID, out, log)
			}
			return

		case <-ctx.Done():
			if err := ctrl.Abandon(); err != nil {
				// Submitting: keep the answers and leave the result to the server.
				out.printf("\nLeaving while the submission is pending.\n")
			}
			return

		case line, ok := <-lines:
			if !ok {
				_ = ctrl.Abandon()
				return
			}
			cmd, valid := parseCommand(line)
			if !valid {
				out.printf("%s\n> ", helpText)
				continue
			}
			switch cmd.kind {
			case 'o':
				ctrl.SelectOption(cmd.option)
			case 'n':
				ctrl.Next()
			case 'p':
				ctrl.Previous()
			case '?':
				out.printf("%s\n> ", helpText)
			case 'q':
				if err := ctrl.Abandon(); err != nil {
					out.printf("Cannot quit now: %v\n", err)
					continue
				}
				return
			case 's':
				go submit(ctx, ctrl, out)
			}
		}
	}
}

// submit runs outside the input loop so the countdown display keeps going.
// Failures are shown by the listener.
func submit(ctx context.Context, ctrl *examsession.Controller, out *screen) {
	_, err := ctrl.Submit(ctx)
	switch {
	case err == nil, errors.Is(err, examsession.ErrSubmissionFailed):
	case errors.Is(err, examsession.ErrSubmissionInFlight):
		out.printf("Already submitting, please wait.\n")
	default:
		out.printf("Cannot submit: %v\n", err)
	}
}

// showHistory lists earlier attempts in the subject. Failures are only logged.
func showHistory(ctx context.Context, client *apiclient.Client, subjectID int, out *screen, log zerolog.Logger) {
	reports, err := client.ListReports(ctx, model.ReportQuery{Type: model.ReportSubject, SubjectID: subjectID})
	if err != nil {
		log.Debug().Err(err).Msg("History unavailable")
		return
	}
	out.printf("%s", renderHistory(reports, historyRows))
}

func chooseSubject(ctx context.Context, client *apiclient.Client, input *bufio.Reader) (int, error) {
	subjects, err := client.ListSubjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subjects: %s", describe(err))
	}
	if len(subjects) == 0 {
		return 0, errors.New("no subjects available")
	}
	for i, s := range subjects {
		fmt.Printf("  %d) %s\n", i+1, s.Name)
	}
	for attempt := 0; attempt < 3; attempt++ {
		choice, err := strconv.Atoi(prompt(input, "Subject: "))
		if err == nil && choice >= 1 && choice <= len(subjects) {
			return subjects[choice-1].ID, nil
		}
		fmt.Printf("Enter a number between 1 and %d.\n", len(subjects))
	}
	return 0, errors.New("no subject chosen")
}

func prompt(input *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := input.ReadString('\n')
	return strings.TrimSpace(line)
}

// describe prefers the server's own message for HTTP failures.
func describe(err error) string {
	var se *apiclient.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}
