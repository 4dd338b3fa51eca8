package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lyceum-io/lyceum/export"
)

var (
	flagFormat string
	flagOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export SESSION_ID",
	Short: "Export a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close()

		sessionID := args[0]
		var transcript export.Transcript
		for _, session := range st.ListSessions(cmd.Context()) {
			if session.ID == sessionID {
				transcript.Session = session
				break
			}
		}
		if transcript.Session == nil {
			return fmt.Errorf("session %s not found", sessionID)
		}
		transcript.Messages = st.ListMessages(cmd.Context(), sessionID)

		exporter, err := export.NewExporter(flagFormat)
		if err != nil {
			return err
		}

		out := os.Stdout
		if flagOut != "" {
			f, err := os.Create(flagOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return exporter.Export(&transcript, out)
	},
}

func init() {
	exportCmd.Flags().StringVar(&flagFormat, "format", "md", "output format (md, html, json)")
	exportCmd.Flags().StringVar(&flagOut, "out", "", "output file (defaults to stdout)")
	rootCmd.AddCommand(exportCmd)
}
