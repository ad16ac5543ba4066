package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var tokenFlag, convoID string
	chatCmd := &cobra.Command{
		Use:   "chat MESSAGE",
		Short: "Send a chat message with a capability token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"token":   tokenFlag,
				"message": args[0],
			}
			if convoID != "" {
				payload["convo_id"] = convoID
			}
			out, err := doPost("/api/v1/chat/message", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	chatCmd.Flags().StringVarP(&tokenFlag, "token", "t", "", "Chat capability token (required)")
	chatCmd.Flags().StringVarP(&convoID, "convo", "c", "", "Existing conversation id")
	_ = chatCmd.MarkFlagRequired("token")
	rootCmd.AddCommand(chatCmd)

	conversationsCmd := &cobra.Command{Use: "conversations", Short: "Conversation views"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doGet("/api/v1/conversations", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	conversationsCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get CONVO_ID",
		Short: "Show a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doGet("/api/v1/conversations/"+args[0], nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	conversationsCmd.AddCommand(getCmd)

	rootCmd.AddCommand(conversationsCmd)
}
