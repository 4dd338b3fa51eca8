package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lyceum-io/lyceum/chat"
	"github.com/lyceum-io/lyceum/store"
)

var flagSessionID string

// maxInputBytes bounds one REPL line; pasted prompts can far exceed
// bufio.Scanner's 64KiB default.
const maxInputBytes = 1 << 20

func newInputScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputBytes)
	return scanner
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation with the assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newStore()
		if err != nil {
			return err
		}
		defer st.Close()

		c, err := newClient()
		if err != nil {
			return err
		}
		engine := chat.NewEngine(st, c, nil)

		ctx := cmd.Context()
		sessionID := flagSessionID

		fmt.Println("Connected. Type your question, or /quit to leave.")
		scanner := newInputScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}
			if query == "/quit" || query == "/exit" {
				break
			}

			if sessionID == "" {
				session, err := st.CreateSession(ctx, store.DeriveTitle(query))
				if err != nil {
					return err
				}
				sessionID = session.ID
				if session.LocalOnly {
					fmt.Println("(backend unreachable — conversation saved locally)")
				}
			}

			msg, err := engine.Send(ctx, sessionID, query, nil)
			if err != nil {
				return err
			}
			if msg.Role == store.MessageRoleSystemError {
				fmt.Printf("\n! %s\n\n", msg.Content)
				continue
			}
			fmt.Printf("\n%s\n\n", msg.Content)
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVar(&flagSessionID, "session", "", "continue an existing session")
	rootCmd.AddCommand(chatCmd)
}
