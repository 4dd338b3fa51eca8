package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lyceum-io/lyceum/internal/filter"
)

var flagFilter string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close()

		sessions := st.ListSessions(cmd.Context())
		if flagFilter != "" {
			f, err := filter.Compile(flagFilter)
			if err != nil {
				return err
			}
			sessions, err = f.Apply(sessions)
			if err != nil {
				return err
			}
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions.")
			return nil
		}
		for _, session := range sessions {
			marker := " "
			if session.LocalOnly {
				marker = "*"
			}
			updated := time.Unix(session.UpdatedTs, 0).Format("2006-01-02 15:04")
			fmt.Printf("%s %-28s %s  %s\n", marker, session.ID, updated, session.Title)
		}
		fmt.Println("\n* = local-only (not yet synced to the backend)")
		return nil
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename SESSION_ID TITLE",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close()

		st.UpdateTitle(cmd.Context(), args[0], args[1])
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete SESSION_ID",
	Short: "Delete a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close()

		return st.DeleteSession(cmd.Context(), args[0])
	},
}

var sessionsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push local-only sessions to the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close()

		results := st.Sync(cmd.Context())
		if len(results) == 0 {
			fmt.Println("Nothing to sync.")
			return nil
		}
		for _, result := range results {
			if result.Err != nil {
				fmt.Printf("failed  %s: %v\n", result.LocalID, result.Err)
				continue
			}
			fmt.Printf("synced  %s -> %s (%d messages)\n", result.LocalID, result.RemoteID, result.Messages)
		}
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().StringVar(&flagFilter, "filter", "", `CEL filter, e.g. 'title.contains("CS") && !local_only'`)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsRenameCmd, sessionsDeleteCmd, sessionsSyncCmd)
	rootCmd.AddCommand(sessionsCmd)
}
