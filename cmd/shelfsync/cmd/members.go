package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shelfsync/internal/application"
	"shelfsync/internal/application/commands"
)

var memberFlags struct {
	name, register, class string
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage members",
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members",
	RunE: func(cmd *cobra.Command, args []string) error {
		members, err := commands.NewListMembersCommand(GetStore(), memberFlags.class).Execute(context.Background())
		if err != nil {
			return err
		}
		for _, m := range members {
			fmt.Printf("%s  %-8s %s  [%s]  joined %s\n", m.ID, m.RegisterNumber, m.Name, m.Class, m.JoinDate)
		}
		return nil
	},
}

var membersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a member",
	RunE: func(cmd *cobra.Command, args []string) error {
		member := application.Member{Name: memberFlags.name, RegisterNumber: memberFlags.register, Class: memberFlags.class}
		result, err := commands.NewAddMemberCommand(GetStore(), member).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var membersUpdateCmd = &cobra.Command{
	Use:   "update <member-id>",
	Short: "Edit a member. Flags left out keep their current value.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, ok := GetStore().Snapshot().MemberByID(args[0])
		if !ok {
			return fmt.Errorf("member %s not found", args[0])
		}
		flags := cmd.Flags()
		if flags.Changed("name") {
			current.Name = memberFlags.name
		}
		if flags.Changed("register") {
			current.RegisterNumber = memberFlags.register
		}
		if flags.Changed("class") {
			current.Class = memberFlags.class
		}

		result, err := commands.NewUpdateMemberCommand(GetStore(), current).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var membersDeleteCmd = &cobra.Command{
	Use:   "delete <member-id>",
	Short: "Remove a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewDeleteMemberCommand(GetStore(), args[0]).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var membersHistoryCmd = &cobra.Command{
	Use:   "history <member-id>",
	Short: "Show a member's lending history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewMemberHistoryCommand(GetStore(), args[0]).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", result.Member.Name, result.Member.RegisterNumber)
		for _, e := range result.Entries {
			line := fmt.Sprintf("  %s  issued %s  due %s  %s", e.BookName, e.IssuedDate, e.ReturnDate, e.Status)
			if e.ReturnedOn != nil {
				line += " on " + *e.ReturnedOn
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(membersCmd)
	membersCmd.AddCommand(membersListCmd, membersAddCmd, membersUpdateCmd, membersDeleteCmd, membersHistoryCmd)

	membersListCmd.Flags().StringVarP(&memberFlags.class, "class", "c", "", "only this class")
	for _, c := range []*cobra.Command{membersAddCmd, membersUpdateCmd} {
		c.Flags().StringVar(&memberFlags.name, "name", "", "member name")
		c.Flags().StringVar(&memberFlags.register, "register", "", "register number")
		c.Flags().StringVar(&memberFlags.class, "class", "", "class")
	}
	membersAddCmd.MarkFlagRequired("name")
	membersAddCmd.MarkFlagRequired("register")
}
