package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shelfsync/internal/application/commands"
)

var issueCmd = &cobra.Command{
	Use:   "issue <book-id> <member-id>",
	Short: "Lend a book for 14 days",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewIssueBookCommand(GetStore(), args[0], args[1]).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var returnCmd = &cobra.Command{
	Use:   "return <book-id>",
	Short: "Take a book back",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewReturnBookCommand(GetStore(), args[0]).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var reissueCmd = &cobra.Command{
	Use:   "reissue <book-id>",
	Short: "Extend a loan to 14 days from today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewReissueBookCommand(GetStore(), args[0]).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issueCmd, returnCmd, reissueCmd)
}
