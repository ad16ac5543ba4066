package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// parseRecipients turns "email[,first_name]" per line into recipient payloads.
func parseRecipients(raw string) []map[string]string {
	var recipients []map[string]string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		email, firstName := line, "there"
		if idx := strings.Index(line, ","); idx >= 0 {
			email = strings.TrimSpace(line[:idx])
			if name := strings.TrimSpace(line[idx+1:]); name != "" {
				firstName = name
			}
		}
		if email == "" {
			continue
		}
		recipients = append(recipients, map[string]string{"email": email, "first_name": firstName})
	}
	return recipients
}

func init() {
	campaignsCmd := &cobra.Command{Use: "campaigns", Short: "Campaign operations"}

	var brandID, name, subject, fromEmail, replyTo, preset, recipientsFile string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(recipientsFile)
			if err != nil {
				return fmt.Errorf("read recipients file: %w", err)
			}
			recipients := parseRecipients(string(raw))
			if len(recipients) == 0 {
				return fmt.Errorf("no recipients found in %s", recipientsFile)
			}
			payload := map[string]interface{}{
				"brand_id":   brandID,
				"name":       name,
				"subject":    subject,
				"from_email": fromEmail,
				"reply_to":   replyTo,
				"recipients": recipients,
			}
			if preset != "" {
				payload["preset"] = preset
			}
			out, err := doPost("/api/v1/campaigns", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&brandID, "brand", "b", "", "Brand ID (required)")
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Campaign name (required)")
	createCmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject line")
	createCmd.Flags().StringVarP(&fromEmail, "from", "f", "", "From address (required)")
	createCmd.Flags().StringVarP(&replyTo, "reply-to", "r", "", "Reply-To address (required)")
	createCmd.Flags().StringVarP(&preset, "preset", "p", "", "Content preset filling in the subject")
	createCmd.Flags().StringVar(&recipientsFile, "recipients", "", "File with one email[,first_name] per line (required)")
	_ = createCmd.MarkFlagRequired("brand")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("from")
	_ = createCmd.MarkFlagRequired("reply-to")
	_ = createCmd.MarkFlagRequired("recipients")
	campaignsCmd.AddCommand(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doGet("/api/v1/campaigns", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	campaignsCmd.AddCommand(listCmd)

	sendCmd := &cobra.Command{
		Use:   "send CAMPAIGN_ID",
		Short: "Render and send a campaign to its recipients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doPost("/api/v1/campaigns/"+args[0]+"/send", map[string]interface{}{})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	campaignsCmd.AddCommand(sendCmd)

	rootCmd.AddCommand(campaignsCmd)
}
