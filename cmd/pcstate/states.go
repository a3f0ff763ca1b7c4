package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlanticdynamic/pcstate/internal/fancy"
	"github.com/atlanticdynamic/pcstate/internal/lifecycle"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"
)

var descriptorHeaders = []string{
	"state", "persistent", "transactional", "dirty", "new", "deleted",
	"flushed", "navigable", "refreshable", "before-image", "auto",
}

func newStatesCmd() *cli.Command {
	return &cli.Command{
		Name:  "states",
		Usage: "Print the lifecycle state descriptor table",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(cmd.Root().Writer, renderDescriptorTable(lifecycle.Descriptors()))
			return err
		},
	}
}

func newTransitionsCmd() *cli.Command {
	return &cli.Command{
		Name:      "transitions",
		Usage:     "Print the accepted events of a state, or of every state",
		ArgsUsage: "[state]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			states := lifecycle.AllStates()
			if cmd.Args().Len() > 0 {
				s, err := lifecycle.ParseState(cmd.Args().First())
				if err != nil {
					return err
				}
				states = []lifecycle.State{s}
			}

			parts := make([]string, 0, len(states))
			for _, s := range states {
				parts = append(parts, renderTransitionTree(s))
			}
			_, err := fmt.Fprintln(cmd.Root().Writer, strings.Join(parts, "\n\n"))
			return err
		},
	}
}

func mark(set bool) string {
	if set {
		return "●"
	}
	return "·"
}

func renderDescriptorTable(descs []lifecycle.Descriptor) string {
	rows := make([][]string, 0, len(descs))
	for _, d := range descs {
		rows = append(rows, []string{
			d.Tag.String(),
			mark(d.Persistent),
			mark(d.Transactional),
			mark(d.Dirty),
			mark(d.New),
			mark(d.Deleted),
			mark(d.Flushed),
			mark(d.Navigable),
			mark(d.Refreshable),
			mark(d.BeforeImageUpdatable),
			mark(d.AutoPersistent),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(fancy.BranchStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return fancy.HeaderStyle.Padding(0, 1)
			case col == 0:
				return fancy.StateStyle.Padding(0, 1)
			default:
				return fancy.FlagStyle.Padding(0, 1).Align(lipgloss.Center)
			}
		}).
		Headers(descriptorHeaders...).
		Rows(rows...).
		String()
}

// renderTransitionTree lists each accepted event of s with the states it
// may lead to. Events that keep the state are shown as such.
func renderTransitionTree(s lifecycle.State) string {
	root := fancy.StateTree(s.String())
	for _, edge := range s.Edges() {
		branch := fancy.Tree().Root(fancy.EventText(edge.Event.String()))
		for _, target := range edge.Targets {
			if target == s {
				branch.Child(fancy.InfoStyle.Render("stays " + target.String()))
				continue
			}
			branch.Child(fancy.StateText(target.String()))
		}
		root.AddChild(branch)
	}
	return root.String()
}
