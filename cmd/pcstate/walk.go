package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/atlanticdynamic/pcstate/internal/fancy"
	"github.com/atlanticdynamic/pcstate/internal/lifecycle"
	"github.com/robbyt/go-fsm"
	"github.com/urfave/cli/v3"
)

func newWalkCmd() *cli.Command {
	return &cli.Command{
		Name:      "walk",
		Usage:     "Check that a sequence of states follows declared lifecycle transitions",
		ArgsUsage: "<state> <state> [state...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 2 {
				return errors.New("walk needs at least two states")
			}
			return walkStates(cmd.Root().Writer, slog.Default().Handler(), cmd.Args().Slice())
		},
	}
}

// walkStates drives a state machine built from the lifecycle graph through
// names, printing each step. It stops at the first undeclared step.
func walkStates(w io.Writer, handler slog.Handler, names []string) error {
	states := make([]string, 0, len(names))
	for _, name := range names {
		s, err := lifecycle.ParseState(name)
		if err != nil {
			return err
		}
		states = append(states, s.String())
	}

	machine, err := fsm.New(handler, states[0], lifecycle.Transitions())
	if err != nil {
		return fmt.Errorf("build lifecycle machine: %w", err)
	}
	for _, next := range states[1:] {
		from := machine.GetState()
		if err := machine.Transition(next); err != nil {
			return fmt.Errorf("%w: no event leads from %s to %s", lifecycle.ErrIllegalTransition, from, next)
		}
		if _, err := fmt.Fprintf(w, "%s -> %s\n", fancy.StateText(from), fancy.StateText(next)); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w, fancy.ValidText(fmt.Sprintf("%d steps follow the lifecycle graph", len(states)-1)))
	return err
}
