package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ampline/ampline/internal/presets"
)

func init() {
	var subject, firstName, preset, outFile string
	previewCmd := &cobra.Command{
		Use:   "preview BRAND_ID",
		Short: "Render a brand preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := map[string]string{}
			if subject != "" {
				query["subject"] = subject
			}
			if firstName != "" {
				query["first_name"] = firstName
			}
			if preset != "" {
				query["preset"] = preset
			}
			out, err := doGet("/api/v1/preview/"+args[0], query)
			if err != nil {
				return err
			}
			if outFile != "" {
				return os.WriteFile(outFile, []byte(out), 0o644)
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	previewCmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject line override")
	previewCmd.Flags().StringVar(&firstName, "first-name", "", "Recipient first name")
	previewCmd.Flags().StringVarP(&preset, "preset", "p", "", "Content preset")
	previewCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the JSON response to a file")
	rootCmd.AddCommand(previewCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List available content presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range presets.List() {
				content, err := presets.Get(name)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", name, content.Subject)
			}
			return nil
		},
	}
	rootCmd.AddCommand(presetsCmd)
}
