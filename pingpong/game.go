// Package pingpong plays the two-player ping/pong game on top of a
// PlatformStrategy: players alternate printing through the strategy and each
// reports Done when it has played all of its rounds.
package pingpong

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

const (
	startMessage = "Ready...Set...Go!"
	doneMessage  = "Done!"
	pingMessage  = "Ping!"
	pongMessage  = "Pong!"
)

// Strategy is the subset of *platformstrategy.PlatformStrategy the game needs.
type Strategy interface {
	Begin()
	Print(text string)
	Done()
	AwaitDoneContext(ctx context.Context) error
}

// player prints its message once per turn and hands the turn to the other player.
type player struct {
	message string
	rounds  int
	turn    <-chan struct{}
	next    chan<- struct{}
}

func (p *player) play(ctx context.Context, s Strategy) error {
	for i := 0; i < p.rounds; i++ {
		select {
		case <-p.turn:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.Print(p.message)
		p.next <- struct{}{}
	}
	s.Done()
	return nil
}

// Play runs one game of the given number of rounds per player and returns
// once both players reported Done and the final message was submitted.
func Play(ctx context.Context, s Strategy, rounds int) error {
	if rounds < 1 {
		return errors.Errorf("rounds must be at least 1, got %d", rounds)
	}

	// Each channel holds at most the single turn token.
	pingTurn := make(chan struct{}, 1)
	pongTurn := make(chan struct{}, 1)

	players := []*player{
		{message: pingMessage, rounds: rounds, turn: pingTurn, next: pongTurn},
		{message: pongMessage, rounds: rounds, turn: pongTurn, next: pingTurn},
	}

	s.Begin()
	s.Print(startMessage)

	errs := make([]error, len(players))
	var wg sync.WaitGroup
	for i, p := range players {
		wg.Add(1)
		go func(i int, p *player) {
			defer wg.Done()
			errs[i] = p.play(ctx, s)
		}(i, p)
	}

	pingTurn <- struct{}{}

	if err := s.AwaitDoneContext(ctx); err != nil {
		wg.Wait()
		return errors.Wrap(err, "await players")
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return errors.Wrap(err, "player")
		}
	}

	s.Print(doneMessage)
	return nil
}
