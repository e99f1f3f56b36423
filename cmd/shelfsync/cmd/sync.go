package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shelfsync/internal/application/commands"
	"shelfsync/internal/engine"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending changes and refresh from the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := GetStore()
		if !store.Status().RemoteConfigured {
			return fmt.Errorf("no remote store configured")
		}
		if err := store.Reconnect(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(describeStatus(store.Status()))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state and headline counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := commands.NewSummaryCommand(GetStore()).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(describeStatus(GetStore().Status()))
		fmt.Printf("books: %d  issued: %d  members: %d  categories: %d\n",
			summary.TotalBooks, summary.IssuedBooks, summary.TotalMembers, summary.TotalCategories)
		return nil
	},
}

func describeStatus(s engine.Status) string {
	switch {
	case !s.RemoteConfigured:
		return "local only (no remote configured)"
	case !s.Online && s.NeedsSync:
		return "offline, local changes pending"
	case !s.Online:
		return "offline"
	case s.NeedsSync:
		return "online, local changes pending"
	default:
		return "online, in sync"
	}
}

func init() {
	rootCmd.AddCommand(syncCmd, statusCmd)
}
