package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shelfsync/internal/adapters/tabular"
	"shelfsync/internal/application/commands"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import books or members from a spreadsheet",
	Long: `Import rows from a .csv or .xlsx file. The first row is a header and is
skipped. Rows missing required fields, and rows matching an existing entry,
are skipped and counted.

Examples:
  shelfsync import books fiction.xlsx Fiction     # book no, name, author, publisher
  shelfsync import members class7a.csv 7A         # name, register number`,
}

var importBooksCmd = &cobra.Command{
	Use:   "books <file> <category>",
	Short: "Import books into a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := tabular.ReadFile(args[0])
		if err != nil {
			return err
		}
		result, err := commands.NewImportBooksCommand(GetStore(), args[1], tabular.Books(rows)).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var importMembersCmd = &cobra.Command{
	Use:   "members <file> <class>",
	Short: "Import members into a class",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := tabular.ReadFile(args[0])
		if err != nil {
			return err
		}
		result, err := commands.NewImportMembersCommand(GetStore(), args[1], tabular.Members(rows)).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importBooksCmd, importMembersCmd)
}
