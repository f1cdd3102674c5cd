package main

import (
	"context"
	"fmt"
	"io"

	"github.com/harunnryd/pgpt/internal/model"
	"github.com/harunnryd/pgpt/internal/model/contract"
)

// session keeps one conversation in memory. Only successful exchanges are
// added to the history.
type session struct {
	registry *model.Registry
	provider model.Provider
	opts     contract.Options
	stream   bool
	system   string
	history  []contract.Turn
}

func newSession(registry *model.Registry, provider model.Provider, system string, opts contract.Options, stream bool) *session {
	return &session{
		registry: registry,
		provider: provider,
		opts:     opts,
		stream:   stream,
		system:   system,
	}
}

func (s *session) turns(prompt string) []contract.Turn {
	turns := make([]contract.Turn, 0, len(s.history)+2)
	if s.system != "" {
		turns = append(turns, contract.SystemTurn{Text: s.system})
	}
	turns = append(turns, s.history...)
	return append(turns, contract.UserTurn{Text: prompt})
}

// send writes the reply to out and records the exchange.
func (s *session) send(ctx context.Context, prompt string, out io.Writer) error {
	turns := s.turns(prompt)

	var reply string
	if s.stream {
		resp, err := s.provider.Stream(ctx, turns, s.opts, func(delta string) error {
			_, err := io.WriteString(out, delta)
			return err
		})
		if err != nil {
			return err
		}
		reply = resp.Text
		fmt.Fprintln(out)
	} else {
		text, err := s.provider.Chat(ctx, turns, s.opts)
		if err != nil {
			return err
		}
		reply = text
		fmt.Fprintln(out, reply)
	}

	s.history = append(s.history, contract.UserTurn{Text: prompt}, contract.AssistantTurn{Text: reply})
	return nil
}

func (s *session) clear() {
	s.history = nil
}

func (s *session) switchModel(name string) error {
	provider, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	s.provider = provider
	return nil
}
