package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tb0hdan/adapta-history/pkg/generation"
	"github.com/tb0hdan/adapta-history/pkg/tools"
	"github.com/tb0hdan/adapta-history/pkg/view"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		fields map[string]string
		replay string
		input  string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "generate TOOL",
		Short: "Run a generation tool and record it in history",
		Long: "Run a generation tool. Tool-specific fields are passed with --field name=value; " +
			"--replay loads the input of a past history entry first.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := tools.Lookup(args[0])
			if err != nil {
				return err
			}

			adapter := tools.NewAdapter(tools.AdapterConfig{
				Tool:      cfg,
				Generator: generation.New(a.cfg.API.BaseURL, a.httpClient(), a.logger),
				History:   a.historyClient(),
				Users:     a.session,
				Hub:       a.hub,
			}, a.logger)
			adapter.Mount()
			defer adapter.Unmount()

			if replay != "" {
				v, store := a.newView(cfg.Type, view.Options{IsPro: true})
				err := v.Open(cmd.Context())
				if err == nil {
					_, err = v.Reuse(replay)
				}
				store.Close()
				if err != nil {
					return fmt.Errorf("failed to replay %s: %w", replay, err)
				}
			}
			if input != "" {
				adapter.SetInput(input)
			}

			payload := make(map[string]any, len(fields))
			for k, v := range fields {
				payload[k] = v
			}

			result, err := adapter.Generate(cmd.Context(), payload)
			if err != nil {
				if generation.IsInsufficientCredits(err) {
					return fmt.Errorf("insufficient credits: %w", err)
				}
				return err
			}
			adapter.Wait()

			return printResult(cmd, cfg, result, out)
		},
	}
	cmd.Flags().StringToStringVar(&fields, "field", nil, "tool field as name=value (repeatable)")
	cmd.Flags().StringVar(&replay, "replay", "", "history entry id whose input is reused")
	cmd.Flags().StringVar(&input, "input", "", "value of the tool's main input field")
	cmd.Flags().StringVarP(&out, "output", "o", "", "where to write file results")
	return cmd
}

func printResult(cmd *cobra.Command, cfg tools.ToolConfig, result *generation.Result, out string) error {
	w := cmd.OutOrStdout()
	if result.IsFile() {
		path := out
		if path == "" {
			path = result.FileName
		}
		if path == "" {
			path = cfg.ID + ".bin"
		}
		if err := os.WriteFile(path, result.File, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(w, "wrote %s (%d bytes)\n", path, len(result.File))
		return nil
	}

	if cfg.OutputField != "" {
		if text := result.String(cfg.OutputField); text != "" {
			fmt.Fprintln(w, text)
			return nil
		}
	}
	data, err := json.MarshalIndent(result.Fields, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func (a *app) toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available generation tools",
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			for _, id := range tools.IDs() {
				cfg := tools.Catalog[id]
				fmt.Fprintf(w, "%-15s %-14s %d credit(s)  %s  [%s]\n",
					id, cfg.Type, cfg.Credits, cfg.Name, strings.Join(cfg.InputFields, ", "))
			}
		},
	}
}
