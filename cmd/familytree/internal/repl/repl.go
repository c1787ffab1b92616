// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package repl implements the interactive family tree command loop.
//
// Each input line is a command name followed by space separated arguments.
// Command names are case-insensitive. Results and error lines are written
// to the same output stream, one report per command.
package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/AleutianAI/familytree/pkg/logging"
	"github.com/AleutianAI/familytree/pkg/ux"
	"github.com/AleutianAI/familytree/services/family"
)

// DefaultPrompt is written before each command.
const DefaultPrompt = "> "

// Fixed REPL error lines.
const (
	msgWrongParams   = "Error: Wrong number of parameters."
	msgLevelNotInt   = "Error: Level must be an integer."
	msgUnknownFormat = "Error: Unknown command: %s"
	msgReloaded      = "Data reloaded."
	msgReloadFailed  = "Warning: data reload failed, keeping previous data."
)

// command is one entry of the command table.
type command struct {
	usage  string
	params int
	run    func(ctx context.Context, args []string) error
}

// Interpreter executes REPL commands against a Querier.
//
// # Thread Safety
//
// Not safe for concurrent use.
type Interpreter struct {
	q        *family.Querier
	out      io.Writer
	styler   *ux.Styler
	logger   *logging.Logger
	json     bool
	commands map[string]command

	changed <-chan struct{}
	reload  ReloadFunc
}

// ReloadFunc builds a fresh Querier from the data source.
type ReloadFunc func(ctx context.Context) (*family.Querier, error)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithJSON prints reports as JSON objects instead of text.
func WithJSON(enabled bool) Option {
	return func(in *Interpreter) { in.json = enabled }
}

// WithStyler sets the styler used for error lines and the prompt.
func WithStyler(s *ux.Styler) Option {
	return func(in *Interpreter) { in.styler = s }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// WithReload swaps in a new Querier from reload after each signal on
// changed. Reloads happen between commands, never during one. A failed
// reload keeps the current data.
func WithReload(changed <-chan struct{}, reload ReloadFunc) Option {
	return func(in *Interpreter) {
		in.changed = changed
		in.reload = reload
	}
}

// New creates an Interpreter writing to out.
func New(q *family.Querier, out io.Writer, opts ...Option) *Interpreter {
	in := &Interpreter{
		q:      q,
		out:    out,
		styler: ux.NewStyler(out, ux.ColorNever),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.commands = in.commandTable()
	return in
}

func (in *Interpreter) commandTable() map[string]command {
	return map[string]command{
		"PERSONS": {usage: "PERSONS", params: 0, run: in.persons},
		"CHILDREN": {usage: "CHILDREN <id>", params: 1, run: in.group(
			func(ctx context.Context, id string) (*family.GroupReport, error) {
				return in.q.Children(ctx, id)
			})},
		"PARENTS": {usage: "PARENTS <id>", params: 1, run: in.group(
			func(ctx context.Context, id string) (*family.GroupReport, error) {
				return in.q.Parents(ctx, id)
			})},
		"SIBLINGS": {usage: "SIBLINGS <id>", params: 1, run: in.group(
			func(ctx context.Context, id string) (*family.GroupReport, error) {
				return in.q.Siblings(ctx, id)
			})},
		"COUSINS": {usage: "COUSINS <id>", params: 1, run: in.group(
			func(ctx context.Context, id string) (*family.GroupReport, error) {
				return in.q.Cousins(ctx, id)
			})},
		"TALLEST_IN_LINEAGE": {usage: "TALLEST_IN_LINEAGE <id>", params: 1, run: in.height(
			func(ctx context.Context, id string) (*family.HeightReport, error) {
				return in.q.TallestInLineage(ctx, id)
			})},
		"SHORTEST_IN_LINEAGE": {usage: "SHORTEST_IN_LINEAGE <id>", params: 1, run: in.height(
			func(ctx context.Context, id string) (*family.HeightReport, error) {
				return in.q.ShortestInLineage(ctx, id)
			})},
		"GRANDCHILDREN_N": {usage: "GRANDCHILDREN_N <id> <n>", params: 2, run: in.level(
			func(ctx context.Context, id string, n int) (*family.GroupReport, error) {
				return in.q.GrandchildrenAtLevel(ctx, id, n)
			})},
		"GRANDPARENTS_N": {usage: "GRANDPARENTS_N <id> <n>", params: 2, run: in.level(
			func(ctx context.Context, id string, n int) (*family.GroupReport, error) {
				return in.q.GrandparentsAtLevel(ctx, id, n)
			})},
		"HELP": {usage: "HELP", params: 0, run: in.help},
		"QUIT": {usage: "QUIT", params: 0},
	}
}

// Execute runs one input line and reports whether the session should end.
//
// # Description
//
// Blank lines are ignored. Unknown commands, wrong argument counts and
// query errors are written as error lines; they never end the session.
func (in *Interpreter) Execute(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name := strings.ToUpper(fields[0])
	args := fields[1:]

	cmd, ok := in.commands[name]
	if !ok {
		in.errorLine(fmt.Sprintf(msgUnknownFormat, fields[0]))
		return false
	}
	if len(args) != cmd.params {
		in.errorLine(msgWrongParams)
		return false
	}
	if cmd.run == nil {
		return true
	}

	in.logger.Debug("command", "name", name, "args", args)
	if err := cmd.run(ctx, args); err != nil {
		in.logger.Debug("command failed", "name", name, "error", err)
		in.errorLine(family.Message(err))
	}
	return false
}

// Run reads commands from r until QUIT, end of input or cancellation.
//
// The prompt is written before each read. A new session id is attached to
// every log record of the session.
func (in *Interpreter) Run(ctx context.Context, r io.Reader, prompt string) error {
	sessionLogger := in.logger.With("session_id", uuid.NewString())
	base := in.logger
	in.logger = sessionLogger
	defer func() { in.logger = base }()

	sessionLogger.Info("repl session started")
	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(r, done)
	commands := 0

	for {
		if err := ctx.Err(); err != nil {
			sessionLogger.Info("repl session cancelled", "commands", commands)
			return err
		}
		fmt.Fprint(in.out, in.styler.Prompt(prompt))

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			sessionLogger.Info("repl session cancelled", "commands", commands)
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			if err := *readErr; err != nil {
				return fmt.Errorf("read commands: %w", err)
			}
			break
		}
		commands++
		in.reloadIfChanged(ctx)
		if in.Execute(ctx, line) {
			break
		}
	}
	sessionLogger.Info("repl session ended", "commands", commands)
	return nil
}

// readLines scans r on its own goroutine so that a blocked terminal read
// never delays cancellation. The returned error pointer is valid once the
// channel is closed. Closing done releases the goroutine after the caller
// stops receiving.
func readLines(r io.Reader, done <-chan struct{}) (<-chan string, *error) {
	lines := make(chan string)
	var err error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		err = scanner.Err()
	}()
	return lines, &err
}

// reloadIfChanged replaces the Querier when a change is pending.
func (in *Interpreter) reloadIfChanged(ctx context.Context) {
	if in.reload == nil {
		return
	}
	select {
	case <-in.changed:
	default:
		return
	}
	q, err := in.reload(ctx)
	if err != nil {
		in.logger.Warn("data reload failed, keeping previous data", "error", err)
		fmt.Fprintln(in.out, in.styler.Warning(msgReloadFailed))
		return
	}
	in.q = q
	in.logger.Info("data reloaded")
	fmt.Fprintln(in.out, in.styler.Muted(msgReloaded))
}

func (in *Interpreter) errorLine(msg string) {
	fmt.Fprintln(in.out, in.styler.Error(msg))
}

func (in *Interpreter) persons(ctx context.Context, _ []string) error {
	persons := in.q.Persons(ctx)
	if in.json {
		return in.writeJSON(persons)
	}
	for _, p := range persons {
		fmt.Fprintf(in.out, "%s, %d\n", p.ID, p.Height)
	}
	return nil
}

func (in *Interpreter) group(query func(context.Context, string) (*family.GroupReport, error)) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		report, err := query(ctx, args[0])
		if err != nil {
			return err
		}
		if in.json {
			return in.writeJSON(report)
		}
		return report.Render(in.out)
	}
}

func (in *Interpreter) height(query func(context.Context, string) (*family.HeightReport, error)) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		report, err := query(ctx, args[0])
		if err != nil {
			return err
		}
		if in.json {
			return in.writeJSON(report)
		}
		return report.Render(in.out)
	}
}

// level wraps a level query. A non-integer level is a syntax error of the
// command line and is reported without running the query.
func (in *Interpreter) level(query func(context.Context, string, int) (*family.GroupReport, error)) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			in.errorLine(msgLevelNotInt)
			return nil
		}
		return in.group(func(ctx context.Context, id string) (*family.GroupReport, error) {
			return query(ctx, id, n)
		})(ctx, args)
	}
}

func (in *Interpreter) help(_ context.Context, _ []string) error {
	usages := make([]string, 0, len(in.commands))
	for _, cmd := range in.commands {
		usages = append(usages, cmd.usage)
	}
	slices.Sort(usages)
	fmt.Fprintln(in.out, in.styler.Title("Commands:"))
	for _, u := range usages {
		fmt.Fprintln(in.out, "  "+in.styler.Muted(u))
	}
	return nil
}

func (in *Interpreter) writeJSON(v any) error {
	enc := json.NewEncoder(in.out)
	return enc.Encode(v)
}
