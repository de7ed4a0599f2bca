package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"
	"github.com/moneta-finance/moneta/internal/event_bus"
	"github.com/moneta-finance/moneta/pkg/api"
	"github.com/moneta-finance/moneta/pkg/lifecycle"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const prompt = "moneta> "

// Shell is the interactive front end. Every input line counts as keyboard
// activity for the idle watchdog before it is executed.
type Shell struct {
	deps *Dependencies
	in   io.Reader
	out  *syncWriter
	cli  *cli.App

	mu   sync.Mutex
	done bool
}

// syncWriter serialises writes from the shell loop and from session events
// delivered on timer goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

func NewShell(deps *Dependencies, in io.Reader, out io.Writer) *Shell {
	s := &Shell{
		deps: deps,
		in:   in,
		out:  &syncWriter{w: out},
	}
	s.cli = &cli.App{
		Name:            "moneta",
		Usage:           "personal finance tracker",
		HideVersion:     true,
		Writer:          s.out,
		ErrWriter:       s.out,
		Commands:        s.commands(),
		ExitErrHandler:  func(*cli.Context, error) {},
		OnUsageError:    s.usageError,
		CommandNotFound: s.commandNotFound,
		Action: func(c *cli.Context) error {
			return fmt.Errorf("unknown command %q, type 'help' for a list", c.Args().First())
		},
	}
	return s
}

// Run reads commands until quit, end of input or ctx cancellation.
func (s *Shell) Run(ctx context.Context) error {
	defer s.watchSession()()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.println("Welcome to Moneta. Type 'help' for a list of commands.")
	for !s.isDone() {
		s.printf(prompt)
		select {
		case <-ctx.Done():
			s.println("")
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				s.println("")
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			s.Execute(ctx, line)
		}
	}
	return nil
}

// watchSession prints the notice of every forced logout as it happens, even
// while the shell waits for input.
func (s *Shell) watchSession() func() {
	return event_bus.SubscribeTyped(s.deps.EventBus, event_bus.SessionExpired,
		func(e event_bus.EventT[event_bus.SessionChange]) error {
			s.println("")
			s.println(e.Data.Notice)
			return nil
		})
}

// Execute runs a single command line and prints its outcome. Failures are
// reported to the user and never returned.
func (s *Shell) Execute(ctx context.Context, line string) {
	activity := event_bus.NewEvent(ctx, event_bus.InputKeyPressed, nil)
	if err := s.deps.EventBus.Publish(activity); err != nil {
		log.Warnf("Failed to publish input activity: %v", err)
	}

	args, err := shellquote.Split(line)
	if err != nil {
		s.printf("Invalid input: %v\n", err)
		return
	}
	if len(args) == 0 {
		return
	}
	if err := s.cli.RunContext(ctx, append([]string{s.cli.Name}, args...)); err != nil {
		log.Debugf("Command %q failed: %v", args[0], err)
		s.println(describe(err))
	}
}

func (s *Shell) quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
}

func (s *Shell) isDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Shell) usageError(c *cli.Context, err error, _ bool) error {
	return fmt.Errorf("%w: %v", api.ErrValidation, err)
}

func (s *Shell) commandNotFound(c *cli.Context, command string) {
	s.printf("Unknown command %q, type 'help' for a list.\n", command)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(text string) {
	fmt.Fprintln(s.out, text)
}

// describe turns a command failure into the text shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrNotAuthenticated):
		return "Please log in first."
	case errors.Is(err, lifecycle.ErrAlreadyLoggedIn):
		return "You are already logged in. Log out first."
	case errors.Is(err, api.ErrValidation):
		return strings.TrimPrefix(err.Error(), api.ErrValidation.Error()+": ")
	default:
		return api.Message(err)
	}
}
