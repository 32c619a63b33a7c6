package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent proposals",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of proposals to list")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	repo, _, err := openRepository()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	proposals, err := repo.List(context.Background(), listLimit)
	if err != nil {
		return fmt.Errorf("failed to list proposals: %w", err)
	}
	if len(proposals) == 0 {
		cmd.Println("No proposals found")
		return nil
	}

	for _, p := range proposals {
		cmd.Printf("%s  v%d  %-10s  %s / %s\n", p.ID, p.Version, p.Status, orDash(p.ClientName), orDash(p.ProjectTitle))
	}
	cmd.Printf("\nTotal: %d proposals\n", len(proposals))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
