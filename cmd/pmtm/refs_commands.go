package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pmtm/internal/config"
	"pmtm/internal/fileutil"
	"pmtm/internal/logging"
	"pmtm/internal/mayaref"
	"pmtm/internal/services"
	"pmtm/internal/session"
)

func newRefsCommand(ctx *commandContext) *cobra.Command {
	refsCmd := &cobra.Command{
		Use:   "refs",
		Short: "Scan, remap, and rewrite Maya scene references",
	}

	refsCmd.AddCommand(newRefsScanCommand(ctx))
	refsCmd.AddCommand(newRefsListCommand(ctx))
	refsCmd.AddCommand(newRefsTreeCommand(ctx))
	refsCmd.AddCommand(newRefsExportCommand(ctx))
	refsCmd.AddCommand(newRefsRemapCommand(ctx))
	refsCmd.AddCommand(newRefsResetCommand(ctx))
	refsCmd.AddCommand(newRefsRewriteCommand(ctx))
	refsCmd.AddCommand(newRefsHistoryCommand(ctx))

	return refsCmd
}

func newReferenceSession(cfg *config.Config, env *commandEnv) *mayaref.Session {
	scanner := mayaref.NewScanner(mayaref.ScanOptions{
		Encodings: cfg.Scan.Encodings,
		Exclude:   cfg.Scan.Exclude,
	}, env.logger)
	rewriter := mayaref.NewRewriter(mayaref.RewriteOptions{Encodings: cfg.Scan.Encodings}, env.logger)
	return mayaref.NewSession(scanner, rewriter)
}

// restoreSession loads the persisted scan into a fresh in-memory session.
func restoreSession(env *commandEnv, snap *session.Snapshot) (*mayaref.Session, error) {
	table, err := snap.RemapTable()
	if err != nil {
		return nil, fmt.Errorf("restore remap table: %w", err)
	}
	sess := newReferenceSession(env.cfg, env)
	if err := sess.Restore(snap.Scenes, table, snap.Rewritten); err != nil {
		return nil, err
	}
	return sess, nil
}

func newRefsScanCommand(ctx *commandContext) *cobra.Command {
	var recurse bool

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Scan .ma scenes under root and start a new remap session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "refs.scan")
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("recurse") {
				recurse = env.cfg.Scan.Recurse
			}

			return ctx.withLock(func() error {
				result, err := runReferenceScan(cmd, ctx, env, root, recurse)
				if err != nil {
					return err
				}
				return ctx.withStore(func(store *session.Store) error {
					snap, err := store.SaveScan(env.ctx, result)
					if err != nil {
						return fmt.Errorf("save scan: %w", err)
					}
					env.logger.Info("scan stored",
						logging.String(logging.FieldScanID, snap.ScanID),
						logging.Int("scenes", result.Scenes.Len()),
						logging.Int("references", len(result.References)),
						logging.Duration("scan_duration", result.Duration),
					)
					if ctx.JSONMode() {
						return writeJSON(cmd, scanJSON(snap, result))
					}
					printScanSummary(cmd.OutOrStdout(), snap, result)
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Include subdirectories (default from [scan] recurse)")
	return cmd
}

func runReferenceScan(cmd *cobra.Command, ctx *commandContext, env *commandEnv, root string, recurse bool) (*mayaref.ScanResult, error) {
	sess := newReferenceSession(env.cfg, env)
	task := mayaref.StartScan(sess, root, recurse)

	var bar *progress
	for ev := range task.Events() {
		switch ev.Kind {
		case mayaref.EventScene:
			if bar == nil && ev.Index == 1 {
				bar = ctx.newProgress(cmd, ev.Total, "Scanning")
			}
			bar.step(ev.Scene)
		case mayaref.EventEncodingError, mayaref.EventReadError:
			if !ctx.JSONMode() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", ev.Err)
			}
		}
	}
	bar.finish()

	result, err := task.Wait()
	if err != nil {
		if errors.Is(err, mayaref.ErrPathNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "refs", "scan", "scan root missing", err)
		}
		return nil, err
	}
	return result, nil
}

func scanJSON(snap *session.Snapshot, result *mayaref.ScanResult) map[string]any {
	failures := make([]map[string]string, 0, len(result.Failures))
	for _, err := range result.Failures {
		kind := "read"
		var encErr *mayaref.EncodingError
		if errors.As(err, &encErr) {
			kind = "encoding"
		}
		failures = append(failures, map[string]string{"kind": kind, "error": err.Error()})
	}
	return map[string]any{
		"scan_id":     snap.ScanID,
		"root":        snap.Root,
		"recurse":     snap.Recurse,
		"scenes":      result.Scenes.Len(),
		"references":  nonNil(result.References),
		"failures":    failures,
		"duration_ms": result.Duration.Milliseconds(),
	}
}

func printScanSummary(out io.Writer, snap *session.Snapshot, result *mayaref.ScanResult) {
	fmt.Fprintf(out, "Scanned %s (recurse: %s)\n", snap.Root, yesNo(snap.Recurse))
	fmt.Fprintf(out, "Scenes: %d\n", result.Scenes.Len())
	fmt.Fprintf(out, "References: %d\n", len(result.References))
	if len(result.Failures) > 0 {
		fmt.Fprintf(out, "Unreadable scenes: %d\n", len(result.Failures))
	}
	fmt.Fprintln(out, "Run `pmtm refs list` to review references and `pmtm refs remap` to edit them.")
}

func newRefsListCommand(ctx *commandContext) *cobra.Command {
	var showOriginal bool
	var changedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the remap table of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "refs.list")
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *session.Store) error {
				snap, err := store.Current(env.ctx)
				if err != nil {
					return err
				}
				table, err := snap.RemapTable()
				if err != nil {
					return err
				}
				entries := table.Entries()
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"scan_id":   snap.ScanID,
						"root":      snap.Root,
						"rewritten": snap.Rewritten,
						"entries":   remapJSON(entries, changedOnly),
					})
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No references found in the current session")
					return nil
				}
				display := table.Display(showOriginal)
				for i, line := range display {
					if changedOnly && !entries[i].Changed() {
						continue
					}
					fmt.Fprintf(out, "%4d  %s\n", i+1, line)
				}
				replacements := table.Replacements().Len()
				fmt.Fprintf(out, "\n%d references, %d remapped", len(entries), replacements)
				if snap.Rewritten {
					fmt.Fprint(out, " (already rewritten; rescan before rewriting again)")
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showOriginal, "original", false, "Show original paths for remapped entries")
	cmd.Flags().BoolVar(&changedOnly, "changed", false, "Only show remapped entries")
	return cmd
}

func remapJSON(entries []mayaref.Entry, changedOnly bool) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for i, e := range entries {
		if changedOnly && !e.Changed() {
			continue
		}
		out = append(out, map[string]any{
			"index":   i + 1,
			"old":     e.Old,
			"new":     e.New,
			"changed": e.Changed(),
		})
	}
	return out
}

func newRefsTreeCommand(ctx *commandContext) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show each scene with its references",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "refs.tree")
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *session.Store) error {
				snap, err := store.Current(env.ctx)
				if err != nil {
					return err
				}
				scenes := snap.Scenes.Filter(strings.TrimSpace(filter))
				if ctx.JSONMode() {
					items := make([]map[string]any, 0, len(scenes))
					for _, scene := range scenes {
						item := map[string]any{"scene": scene, "references": nonNil(snap.Scenes.References(scene))}
						if msg, ok := snap.Failures[scene]; ok {
							item["error"] = msg
						}
						items = append(items, item)
					}
					return writeJSON(cmd, items)
				}

				out := cmd.OutOrStdout()
				if len(scenes) == 0 {
					fmt.Fprintln(out, "No scenes match")
					return nil
				}
				for _, scene := range scenes {
					fmt.Fprintln(out, scene)
					if msg, ok := snap.Failures[scene]; ok {
						fmt.Fprintf(out, "  ! %s\n", msg)
						continue
					}
					refs := snap.Scenes.References(scene)
					for i, ref := range refs {
						branch := "├─"
						if i == len(refs)-1 {
							branch = "└─"
						}
						fmt.Fprintf(out, "  %s %s\n", branch, ref)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only show scenes whose file name contains this keyword")
	return cmd
}

// nonNil keeps empty lists as [] in JSON output.
func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

func newRefsExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.csv|->",
		Short: "Export scene/reference pairs as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "refs.export")
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *session.Store) error {
				snap, err := store.Current(env.ctx)
				if err != nil {
					return err
				}
				return writeCSVTarget(cmd, args[0], ctx.JSONMode(), func(w io.Writer) error {
					return mayaref.ExportCSV(w, snap.Scenes)
				})
			})
		},
	}
}

// writeCSVTarget writes to stdout for "-" and to a new file otherwise.
func writeCSVTarget(cmd *cobra.Command, target string, quiet bool, write func(io.Writer) error) error {
	if strings.TrimSpace(target) == "-" {
		return write(cmd.OutOrStdout())
	}
	path, err := config.ExpandPath(target)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, 0o644, write); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}
	return nil
}

// remapDocument is the YAML accepted by `refs remap --file`.
type remapDocument struct {
	MatchName bool         `yaml:"match_name"`
	Remaps    []remapEntry `yaml:"remaps"`
}

type remapEntry struct {
	Old       string `yaml:"old"`
	New       string `yaml:"new"`
	MatchName *bool  `yaml:"match_name,omitempty"`
}

func loadRemapDocument(path string) (*remapDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read remap file: %w", err)
	}
	var doc remapDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "refs", "remap", "parse remap file", err)
	}
	if len(doc.Remaps) == 0 {
		return nil, services.Wrap(services.ErrValidation, "refs", "remap", "remap file has no remaps", nil)
	}
	return &doc, nil
}

// resolveReference accepts either a reference path or its 1-based index as
// printed by `refs list`.
func resolveReference(entries []mayaref.Entry, value string) string {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n >= 1 && n <= len(entries) {
		return entries[n-1].Old
	}
	return value
}

func newRefsRemapCommand(ctx *commandContext) *cobra.Command {
	var matchName bool
	var file string

	cmd := &cobra.Command{
		Use:   "remap [<old|index> <new>]",
		Short: "Point a reference (or every reference sharing its file name) at a new file",
		Long: `Edit the remap table of the current session.

The old reference may be given as a path or as the index printed by
` + "`pmtm refs list`" + `. With --match-name every reference whose file name equals
the old reference's file name is remapped too. The new path must be an
existing file.

--file applies a YAML document instead:

  match_name: true
  remaps:
    - old: /assets/chars/hero.ma
      new: /library/hero_v2.ma`,
		Args: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "refs.remap")
			if err != nil {
				return err
			}

			var edits []remapEntry
			if file != "" {
				doc, err := loadRemapDocument(file)
				if err != nil {
					return err
				}
				for _, e := range doc.Remaps {
					if e.MatchName == nil {
						m := doc.MatchName
						e.MatchName = &m
					}
					edits = append(edits, e)
				}
			} else {
				edits = []remapEntry{{Old: args[0], New: args[1], MatchName: &matchName}}
			}

			return ctx.withLock(func() error {
				return ctx.withStore(func(store *session.Store) error {
					snap, err := store.Current(env.ctx)
					if err != nil {
						return err
					}
					sess, err := restoreSession(env, snap)
					if err != nil {
						return err
					}

					var changed, unchanged []string
					for _, edit := range edits {
						old := resolveReference(sess.Table(), edit.Old)
						paths, err := sess.Set(old, edit.New, *edit.MatchName)
						if errors.Is(err, mayaref.ErrNoChange) {
							env.logger.Info("remap unchanged", logging.String("reference", old))
							unchanged = append(unchanged, old)
							continue
						}
						if err != nil {
							return services.Wrap(services.ErrValidation, "refs", "remap", old, err)
						}
						changed = append(changed, paths...)
					}
					if err := store.SaveRemap(env.ctx, snap.ScanID, sess.Table()); err != nil {
						return err
					}
					env.logger.Info("remap table updated",
						logging.String(logging.FieldScanID, snap.ScanID),
						logging.Int("changed", len(changed)),
						logging.Int("unchanged", len(unchanged)),
					)

					if ctx.JSONMode() {
						return writeJSON(cmd, map[string]any{
							"changed":   nonNil(changed),
							"unchanged": nonNil(unchanged),
						})
					}
					out := cmd.OutOrStdout()
					for _, old := range changed {
						fmt.Fprintf(out, "remapped %s\n", old)
					}
					for _, old := range unchanged {
						fmt.Fprintf(out, "unchanged %s (already points there)\n", old)
					}
					fmt.Fprintf(out, "%d references remapped\n", len(changed))
					if snap.Rewritten {
						fmt.Fprintln(out, "Note: this session was already rewritten; rescan before rewriting again.")
					}
					return nil
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&matchName, "match-name", "m", false, "Also remap references with the same file name")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Apply remaps from a YAML document")
	return cmd
}

func newRefsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset every remap back to its original path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "refs.reset")
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				return ctx.withStore(func(store *session.Store) error {
					snap, err := store.Current(env.ctx)
					if err != nil {
						return err
					}
					sess, err := restoreSession(env, snap)
					if err != nil {
						return err
					}
					if err := sess.ResetAll(); err != nil {
						return err
					}
					if err := store.SaveRemap(env.ctx, snap.ScanID, sess.Table()); err != nil {
						return err
					}
					if ctx.JSONMode() {
						return writeJSON(cmd, map[string]any{"reset": len(sess.Table())})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Reset %d references\n", len(sess.Table()))
					return nil
				})
			})
		},
	}
}

func newRefsRewriteCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite scenes with the current remap table",
		Long: `Apply the remap table of the current session to every scanned scene.

Scenes without references, read-only scenes, and scenes without a remapped
reference are skipped. Each rewritten scene is written to a *_bak.ma sibling
first and then moved over the original. A session can be rewritten once;
run ` + "`pmtm refs scan`" + ` again before the next rewrite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "refs.rewrite")
			if err != nil {
				return err
			}
			return ctx.withLock(func() error {
				return ctx.withStore(func(store *session.Store) error {
					return runRewrite(cmd, ctx, env, store, assumeYes)
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func runRewrite(cmd *cobra.Command, ctx *commandContext, env *commandEnv, store *session.Store, assumeYes bool) error {
	snap, err := store.Current(env.ctx)
	if err != nil {
		return err
	}
	if snap.Rewritten {
		return mayaref.ErrRescanRequired
	}
	env = env.forScan(snap.ScanID)
	table, err := snap.RemapTable()
	if err != nil {
		return err
	}
	replacements := table.Replacements().Len()

	if !assumeYes {
		if ctx.JSONMode() {
			return errors.New("--json requires --yes for rewrite")
		}
		ok, err := confirm(cmd, fmt.Sprintf("Rewrite %d scenes under %s with %d remapped references?", snap.Scenes.Len(), snap.Root, replacements))
		if err != nil {
			return err
		}
		if !ok {
			return errNotConfirmed
		}
	}

	run, err := store.BeginRewrite(env.ctx, snap, replacements)
	if err != nil {
		return err
	}
	env.logger.Info("rewrite started",
		logging.String("rewrite_id", run.ID),
		logging.Int("replacements", replacements),
	)

	sess := newReferenceSession(env.cfg, env)
	if err := sess.Restore(snap.Scenes, table, false); err != nil {
		return err
	}
	task := mayaref.StartRewrite(sess)
	bar := ctx.newProgress(cmd, snap.Scenes.Len(), "Rewriting")
	for ev := range task.Events() {
		if ev.Kind == mayaref.EventOutcome {
			bar.step(ev.Scene)
		}
	}
	bar.finish()
	report, runErr := task.Wait()

	if err := store.FinishRewrite(env.ctx, run, report, runErr); err != nil {
		return errors.Join(runErr, fmt.Errorf("record rewrite: %w", err))
	}

	if ctx.JSONMode() {
		payload := map[string]any{"rewrite_id": run.ID, "status": "completed"}
		if report != nil {
			payload["outcomes"] = report.Outcomes
			payload["summary"] = report.String()
		}
		if runErr != nil {
			payload["status"] = "aborted"
			payload["error"] = runErr.Error()
		}
		if err := writeJSON(cmd, payload); err != nil {
			return err
		}
		return runErr
	}

	out := cmd.OutOrStdout()
	if report != nil {
		fmt.Fprint(out, renderOutcomeTable(report.Outcomes))
		fmt.Fprintf(out, "\n%s\n", report.String())
	}
	fmt.Fprintf(out, "Rewrite id: %s\n", run.ID)
	return runErr
}

func renderOutcomeTable(outcomes []mayaref.SceneOutcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, so := range outcomes {
		detail := so.Encoding
		if so.Error != "" {
			detail = so.Error
		}
		rows = append(rows, []string{so.Scene, string(so.Outcome), detail})
	}
	return renderTable([]column{{title: "Scene", path: true}, {title: "Outcome"}, {title: "Detail"}}, rows)
}

func newRefsHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [rewrite-id]",
		Short: "Show past rewrites, or the outcomes of one rewrite",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "refs.history")
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *session.Store) error {
				if len(args) == 1 {
					run, err := store.Rewrite(env.ctx, strings.TrimSpace(args[0]))
					if err != nil {
						return err
					}
					if ctx.JSONMode() {
						return writeJSON(cmd, run)
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Rewrite %s (%s)\n", run.ID, run.Status)
					fmt.Fprintf(out, "Root: %s\nStarted: %s\n", run.Root, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
					if run.Error != "" {
						fmt.Fprintf(out, "Error: %s\n", run.Error)
					}
					fmt.Fprint(out, renderOutcomeTable(run.Outcomes))
					fmt.Fprintln(out)
					return nil
				}

				runs, err := store.Rewrites(env.ctx, limit)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if runs == nil {
						runs = []session.RewriteRun{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No rewrites recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID[:8],
						run.StartedAt.Local().Format("2006-01-02 15:04"),
						string(run.Status),
						strconv.Itoa(run.Rewritten),
						strconv.Itoa(run.Skipped),
						strconv.Itoa(run.Failed),
						run.Root,
					})
				}
				fmt.Fprint(out, renderTable(
					[]column{{title: "ID"}, {title: "Started"}, {title: "Status"}, {title: "Rewritten", numeric: true},
						{title: "Skipped", numeric: true}, {title: "Failed", numeric: true}, {title: "Root", path: true}},
					rows,
				))
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rewrites to list (0 for all)")
	return cmd
}
