package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tb0hdan/adapta-history/pkg/historystore"
	"github.com/tb0hdan/adapta-history/pkg/view"
)

// stdinConfirmer asks on the terminal.
type stdinConfirmer struct{}

func (stdinConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

type alwaysConfirm struct{}

func (alwaysConfirm) Confirm(string) bool { return true }

type stderrNotifier struct{}

func (stderrNotifier) Notify(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func (a *app) newView(toolType string, opts view.Options) (*view.View, *historystore.Store) {
	store := historystore.New(historystore.Config{
		ToolType: toolType,
		Limit:    a.cfg.History.Limit,
		Backend:  a.historyClient(),
		Users:    a.session,
		Hub:      a.hub,
		Sessions: &a.session.Changes,
	}, a.logger)
	store.Mount()

	opts.Hub = a.hub
	opts.IsPro = opts.IsPro || a.cfg.History.IsPro
	opts.Notifier = stderrNotifier{}
	return view.New(store, opts), store
}

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and manage your tool history",
	}
	cmd.AddCommand(a.historyListCmd(), a.historyDeleteCmd(), a.historyCopyCmd())
	return cmd
}

func (a *app) historyListCmd() *cobra.Command {
	var (
		toolType string
		all      bool
		detailed bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := view.Options{Title: "History"}
			if toolType != "" {
				opts.Title = "History: " + toolType
			}
			if detailed {
				opts.Density = view.Detailed
			}
			v, store := a.newView(toolType, opts)
			defer store.Close()
			if all {
				v.ToggleShowAll()
			}

			// Load failures are part of the rendered state.
			_ = v.Open(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), v.Render())
			if v.State() == view.StateError {
				return fmt.Errorf("history unavailable")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&toolType, "tool", "", "tool type to list (empty lists every tool)")
	cmd.Flags().BoolVar(&all, "all", false, "show every loaded entry")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show full entries")
	cmd.Flags().Int("limit", 0, "maximum entries to load")
	_ = a.v.BindPFlag("history.limit", cmd.Flags().Lookup("limit"))
	return cmd
}

func (a *app) historyDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := view.Options{Confirmer: stdinConfirmer{}}
			if yes {
				opts.Confirmer = alwaysConfirm{}
			}
			v, store := a.newView("", opts)
			defer store.Close()

			if err := v.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) historyCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy ID",
		Short: "Copy an entry's input to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, store := a.newView("", view.Options{IsPro: true})
			defer store.Close()

			if err := v.Open(cmd.Context()); err != nil {
				return err
			}
			return v.Copy(args[0])
		},
	}
}
