// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/familytree/cmd/familytree/config"
	"github.com/AleutianAI/familytree/cmd/familytree/internal/loader"
	"github.com/AleutianAI/familytree/cmd/familytree/internal/repl"
	"github.com/AleutianAI/familytree/cmd/familytree/internal/watch"
	"github.com/AleutianAI/familytree/pkg/logging"
	"github.com/AleutianAI/familytree/services/family"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

// rootCmd builds the command tree bound to a.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "familytree",
		Short: "Query family relations loaded from a data file",
		Long: `familytree answers questions about a family tree: children, parents,
siblings, cousins, ancestors and descendants at any level, and the tallest
or shortest person in a lineage.

Without a subcommand it starts an interactive session reading commands
from standard input.

Examples:
  familytree --data family.txt
  familytree --data family.yaml cousins Kid
  familytree --data family.txt grandparents Kid 2 --json`,
		Args:              a.exactArgs(0),
		PersistentPreRunE: a.setup,
		RunE:              a.runREPL,
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Config file (default $FAMILYTREE_CONFIG or ~/.familytree/familytree.yaml)")
	root.PersistentFlags().StringVarP(&a.dataPath, "data", "d", "",
		"Data file to load (.txt semicolon format or .yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false,
		"Output reports as JSON")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.colorMode, "color", "",
		"Colored output: auto, always, never")
	root.PersistentFlags().BoolVar(&a.watch, "watch", false,
		"Reload the data file between REPL commands when it changes")

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return badArgs(c.Name(), err)
	})

	root.AddCommand(
		&cobra.Command{
			Use:   "repl",
			Short: "Start an interactive session",
			Args:  a.exactArgs(0),
			RunE:  a.runREPL,
		},
		&cobra.Command{
			Use:   "persons",
			Short: "List every person as \"id, height\"",
			Args:  a.exactArgs(0),
			RunE:  a.runPersons,
		},
		a.groupCmd("children ID", "List the children of a person",
			func(ctx context.Context, id string) (*family.GroupReport, error) {
				return a.querier.Children(ctx, id)
			}),
		a.groupCmd("parents ID", "List the parents of a person",
			func(ctx context.Context, id string) (*family.GroupReport, error) {
				return a.querier.Parents(ctx, id)
			}),
		a.groupCmd("siblings ID", "List the siblings of a person, including half siblings",
			func(ctx context.Context, id string) (*family.GroupReport, error) {
				return a.querier.Siblings(ctx, id)
			}),
		a.groupCmd("cousins ID", "List the cousins of a person",
			func(ctx context.Context, id string) (*family.GroupReport, error) {
				return a.querier.Cousins(ctx, id)
			}),
		a.levelCmd("grandchildren ID LEVEL", "List descendants at LEVEL (1 = grandchildren)",
			func(ctx context.Context, id string, n int) (*family.GroupReport, error) {
				return a.querier.GrandchildrenAtLevel(ctx, id, n)
			}),
		a.levelCmd("grandparents ID LEVEL", "List ancestors at LEVEL (1 = grandparents)",
			func(ctx context.Context, id string, n int) (*family.GroupReport, error) {
				return a.querier.GrandparentsAtLevel(ctx, id, n)
			}),
		a.heightCmd("tallest ID", "Find the tallest person in a lineage",
			func(ctx context.Context, id string) (*family.HeightReport, error) {
				return a.querier.TallestInLineage(ctx, id)
			}),
		a.heightCmd("shortest ID", "Find the shortest person in a lineage",
			func(ctx context.Context, id string) (*family.HeightReport, error) {
				return a.querier.ShortestInLineage(ctx, id)
			}),
		a.validateCmd(),
		a.initConfigCmd(),
	)
	return root
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func (a *app) exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return badArgs(cmd.Name(), err)
		}
		return nil
	}
}

// =============================================================================
// QUERY COMMANDS
// =============================================================================

func (a *app) groupCmd(use, short string, query func(context.Context, string) (*family.GroupReport, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  a.exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := query(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printReport(report)
		},
	}
}

func (a *app) levelCmd(use, short string, query func(context.Context, string, int) (*family.GroupReport, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  a.exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return badArgs(cmd.Name(), fmt.Errorf("level must be an integer, got %q", args[1]))
			}
			report, err := query(cmd.Context(), args[0], level)
			if err != nil {
				return err
			}
			return a.printReport(report)
		},
	}
}

func (a *app) heightCmd(use, short string, query func(context.Context, string) (*family.HeightReport, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  a.exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := query(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printReport(report)
		},
	}
}

func (a *app) runPersons(cmd *cobra.Command, _ []string) error {
	return a.printPersons(a.querier.Persons(cmd.Context()))
}

func (a *app) runREPL(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	opts := []repl.Option{
		repl.WithJSON(a.jsonOutput),
		repl.WithStyler(a.styler(a.stdout)),
		repl.WithLogger(a.logger),
	}

	if a.cfg.REPL.Watch && a.cfg.DataFile != "" {
		w, err := watch.NewDataWatcher(a.cfg.DataFile, a.logger)
		if err != nil {
			return err
		}
		defer w.Stop()

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go w.Start(watchCtx)
		opts = append(opts, repl.WithReload(w.Changed(), a.reloadData))
	}

	prompt := a.cfg.REPL.Prompt
	if prompt == "" {
		prompt = repl.DefaultPrompt
	}
	err := repl.New(a.querier, a.stdout, opts...).Run(ctx, a.stdin, prompt)
	if errors.Is(err, context.Canceled) {
		// Interrupted at the prompt: end the line and exit cleanly.
		fmt.Fprintln(a.stdout)
		return nil
	}
	return err
}

// =============================================================================
// DATA & CONFIG COMMANDS
// =============================================================================

// validateCmd checks data files without keeping them loaded.
func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a data file and print what loading it would do",
		Long: `Parse FILE, apply it to an empty registry and print the load summary.

Malformed records fail with the offending line number. Duplicate persons
and relations naming unknown children are counted, not fatal.`,
		Args: a.exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := loader.LoadFile(cmd.Context(), args[0], family.NewRegistry(), a.logger)
			if err != nil {
				return err
			}
			return a.printSummary(args[0], summary)
		},
	}
}

// initConfigCmd writes the default config file. It skips setup so that it
// works while the existing config is broken.
func (a *app) initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [PATH]",
		Short: "Write a default config file",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return badArgs(cmd.Name(), err)
			}
			return nil
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			a.logger = logging.New(logging.Config{Level: logging.LevelWarn, Output: a.stderr})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			path, err := config.Resolve(path)
			if err != nil {
				return err
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}
}
