package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shelfsync/internal/application/commands"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage book categories",
}

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Manage member classes",
}

func listGroups(pick func(categories, classes []string) []string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		categories, classes, err := commands.NewListGroupsCommand(GetStore()).Execute(context.Background())
		if err != nil {
			return err
		}
		for _, name := range pick(categories, classes) {
			fmt.Println(name)
		}
		return nil
	}
}

func printGroup(result *commands.GroupResult, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(result.Message)
	return nil
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE:  listGroups(func(categories, _ []string) []string { return categories }),
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printGroup(commands.NewAddCategoryCommand(GetStore(), args[0]).Execute(context.Background()))
	},
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a category and every book in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printGroup(commands.NewDeleteCategoryCommand(GetStore(), args[0]).Execute(context.Background()))
	},
}

var classesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List classes",
	RunE:  listGroups(func(_, classes []string) []string { return classes }),
}

var classesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printGroup(commands.NewAddClassCommand(GetStore(), args[0]).Execute(context.Background()))
	},
}

var classesRenameCmd = &cobra.Command{
	Use:   "rename <old-name> <new-name>",
	Short: "Rename a class and move its members",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printGroup(commands.NewUpdateClassCommand(GetStore(), args[0], args[1]).Execute(context.Background()))
	},
}

var classesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a class and every member enrolled in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printGroup(commands.NewDeleteClassCommand(GetStore(), args[0]).Execute(context.Background()))
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd, classesCmd)
	categoriesCmd.AddCommand(categoriesListCmd, categoriesAddCmd, categoriesDeleteCmd)
	classesCmd.AddCommand(classesListCmd, classesAddCmd, classesRenameCmd, classesDeleteCmd)
}
