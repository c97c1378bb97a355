package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pmtm/internal/deps"
	"pmtm/internal/preflight"
	"pmtm/internal/session"
	"pmtm/internal/staging"
)

type sessionStatus struct {
	ScanID      string `json:"scan_id,omitempty"`
	Root        string `json:"root,omitempty"`
	Scenes      int    `json:"scenes"`
	References  int    `json:"references"`
	Remapped    int    `json:"remapped"`
	Unreadable  int    `json:"unreadable"`
	Rewritten   bool   `json:"rewritten"`
	LastRewrite string `json:"last_rewrite,omitempty"`
}

type statusReport struct {
	Database     string             `json:"database"`
	Session      *sessionStatus     `json:"session"`
	Dependencies []deps.Status      `json:"dependencies"`
	Directories  []preflight.Result `json:"directories"`
	Staging      []staging.DirInfo  `json:"staging"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session, external tools, and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.env(cmd, "status")
			if err != nil {
				return err
			}

			report := statusReport{
				Dependencies: preflight.Tools(env.cfg),
				Directories:  preflight.Directories(env.cfg),
			}
			dirs, _ := staging.ListDirectories(env.cfg.Paths.StagingDir)
			report.Staging = nonNil(dirs)

			err = ctx.withStore(func(store *session.Store) error {
				report.Database = store.Path()
				snap, err := store.Current(env.ctx)
				if errors.Is(err, session.ErrNoSession) {
					return nil
				}
				if err != nil {
					return err
				}
				table, err := snap.RemapTable()
				if err != nil {
					return err
				}
				status := &sessionStatus{
					ScanID:     snap.ScanID,
					Root:       snap.Root,
					Scenes:     snap.Scenes.Len(),
					References: table.Len(),
					Remapped:   table.Replacements().Len(),
					Unreadable: len(snap.Failures),
					Rewritten:  snap.Rewritten,
				}
				runs, err := store.Rewrites(env.ctx, 1)
				if err != nil {
					return err
				}
				if len(runs) > 0 {
					status.LastRewrite = fmt.Sprintf("%s %s (%d rewritten, %d failed)",
						runs[0].ID[:8], runs[0].Status, runs[0].Rewritten, runs[0].Failed)
				}
				report.Session = status
				return nil
			})
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, report)
			}
			printStatus(cmd, report)
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	w := &statusWriter{colorize: shouldColorize(out)}

	w.section("Session")
	w.line("Database", levelInfo, report.Database)
	if s := report.Session; s == nil {
		w.line("Scan", levelInfo, "none; run `pmtm refs scan <root>`")
	} else {
		w.line("Root", levelInfo, s.Root)
		w.line("Scenes", levelInfo, fmt.Sprintf("%d (%d unreadable)", s.Scenes, s.Unreadable))
		w.line("References", levelInfo, fmt.Sprintf("%d (%d remapped)", s.References, s.Remapped))
		if s.Rewritten {
			w.line("Rewrite", levelWarn, "rewritten; rescan before rewriting again")
		} else {
			w.line("Rewrite", levelOK, "ready")
		}
		if s.LastRewrite != "" {
			w.line("Last rewrite", levelInfo, s.LastRewrite)
		}
	}

	w.section("Dependencies")
	for _, dep := range report.Dependencies {
		switch {
		case dep.Available:
			w.line(dep.Name, levelOK, dep.Command)
		case dep.Optional:
			w.line(dep.Name, levelWarn, dep.Detail+" (optional)")
		default:
			w.line(dep.Name, levelError, dep.Detail)
		}
	}

	w.section("Directories")
	for _, check := range report.Directories {
		level := levelOK
		if !check.Passed {
			level = levelError
		}
		w.line(check.Name, level, fmt.Sprintf("%s (%s)", check.Path, check.Detail))
	}
	var size int64
	for _, dir := range report.Staging {
		size += dir.Size
	}
	w.line("Staging usage", levelInfo, fmt.Sprintf("%d work directories, %s", len(report.Staging), formatBytes(size)))

	fmt.Fprintln(out, w.String())
}
