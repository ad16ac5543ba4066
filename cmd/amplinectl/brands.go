package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	brandsCmd := &cobra.Command{Use: "brands", Short: "Brand operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List synced brands",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doGet("/api/v1/brands", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	brandsCmd.AddCommand(listCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync brand configs from disk into the brands table",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doPost("/api/v1/brands/sync", map[string]interface{}{})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	brandsCmd.AddCommand(syncCmd)

	rootCmd.AddCommand(brandsCmd)
}
