package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/featureflow/store"
	"github.com/randalmurphal/featureflow/transcript"
)

func newReposCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List the repositories users can pick",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, _, err := opts.load(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPATH\tPRESENT")
			for _, name := range settings.Repos.Names() {
				repo, _ := settings.Repos.Lookup(name)
				present := "no"
				if info, err := os.Stat(repo.Path); err == nil && info.IsDir() {
					present = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", repo.Name, repo.Path, present)
			}
			return w.Flush()
		},
	}
}

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	var thread string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List open feature requests, or show one with --thread",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			db, err := store.Open(cmd.Context(), settings.DBPath, store.WithLogger(logger))
			if err != nil {
				return err
			}
			defer db.Close()

			if thread != "" {
				rec, err := db.Get(cmd.Context(), thread)
				if err != nil {
					return err
				}
				return writeRecord(cmd, rec)
			}

			records, err := db.ListOpen(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "THREAD\tSTATE\tREPO\tUSER\tUPDATED\tPR")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					rec.ThreadID, orDash(rec.State), orDash(rec.RepoName), rec.UserID,
					rec.LastUpdated.Local().Format(time.DateTime), orDash(rec.PRURL))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&thread, "thread", "", "show the full record of one thread, open or not")
	return cmd
}

func writeRecord(cmd *cobra.Command, rec *store.Record) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Thread", rec.ThreadID},
		{"State", orDash(rec.State)},
		{"User", rec.UserID},
		{"Channel", rec.ChannelID},
		{"Repository", orDash(rec.RepoName)},
		{"Path", orDash(rec.RepoPath)},
		{"Pull request", orDash(rec.PRURL)},
		{"Created", rec.CreatedAt.Local().Format(time.DateTime)},
		{"Updated", rec.LastUpdated.Local().Format(time.DateTime)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", r[0], r[1])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, section := range [][2]string{
		{"Request", rec.RequestText},
		{"Plan", rec.FinalPlan},
		{"Summary", rec.FinalSummary},
	} {
		if section[1] != "" {
			fmt.Fprintf(out, "\n%s:\n%s\n", section[0], section[1])
		}
	}
	return nil
}

func newTranscriptsCmd(opts *rootOptions) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "transcripts <thread>",
		Short: "List the agent runs recorded for a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := opts.load(cmd)
			if err != nil {
				return err
			}

			fs, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: settings.TranscriptDir})
			if err != nil {
				return err
			}

			if id != "" {
				t, err := fs.Load(args[0], id)
				if errors.Is(err, transcript.ErrNotFound) {
					return fmt.Errorf("no transcript %s for thread %s", id, args[0])
				}
				if err != nil {
					return err
				}
				return transcript.WriteDetail(cmd.OutOrStdout(), t)
			}

			metas, err := fs.List(args[0])
			if err != nil {
				return err
			}
			return transcript.WriteTable(cmd.OutOrStdout(), metas)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "show one run with its prompt and output")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
