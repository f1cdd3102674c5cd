package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	pgptErrors "github.com/harunnryd/pgpt/internal/errors"

	"github.com/google/shlex"
)

var errExit = errors.New("exit requested")

type REPL struct {
	session *session
	reader  *bufio.Reader
	out     io.Writer
}

func NewREPL(s *session, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		session: s,
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

func (r *REPL) Start(ctx context.Context) error {
	fmt.Fprintf(r.out, "pgpt interactive session with %s (%s)\n", r.session.provider.Name(), r.session.provider.Dialect())
	fmt.Fprintln(r.out, "Type '/help' for commands, '/exit' to quit.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := r.readLine(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, errExit):
			return nil
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			return nil
		default:
			fmt.Fprintf(r.out, "error: %v\n", err)
			if pgptErrors.IsRetryable(err) {
				fmt.Fprintln(r.out, "The provider may recover; try again.")
			}
		}
	}
}

func (r *REPL) readLine(ctx context.Context) error {
	fmt.Fprint(r.out, "> ")
	text, err := r.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(text) == "") {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		return r.execute(text)
	}

	return r.session.send(ctx, text, r.out)
}

// execute runs a slash command. Arguments are split shell-style so
// /system "be brief" keeps the quoted text together.
func (r *REPL) execute(input string) error {
	parts, parseErr := shlex.Split(input)
	if parseErr != nil {
		parts = strings.Fields(input)
	}
	if len(parts) == 0 {
		return nil
	}
	cmd := parts[0]
	args := parts[1:]

	slog.Debug("Executing slash command", "cmd", cmd)

	switch cmd {
	case "/exit", "/quit":
		return errExit
	case "/clear":
		r.session.clear()
		fmt.Fprintln(r.out, "Conversation cleared.")
	case "/system":
		r.session.system = strings.Join(args, " ")
		if r.session.system == "" {
			fmt.Fprintln(r.out, "System prompt removed.")
		} else {
			fmt.Fprintln(r.out, "System prompt set.")
		}
	case "/model":
		if len(args) != 1 {
			fmt.Fprintf(r.out, "Current model: %s. Available: %s\n", r.session.provider.Name(), strings.Join(r.session.registry.Names(), ", "))
			return nil
		}
		if err := r.session.switchModel(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Switched to %s (%s).\n", r.session.provider.Name(), r.session.provider.Dialect())
	case "/help":
		fmt.Fprintln(r.out, helpText())
	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", cmd)
	}
	return nil
}

func helpText() string {
	return strings.Join([]string{
		"Commands:",
		"  /system \"text\"  set the system prompt (empty removes it)",
		"  /model [name]   show or switch the provider",
		"  /clear          forget the conversation",
		"  /exit           quit",
	}, "\n")
}
