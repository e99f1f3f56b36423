package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shelfsync/internal/application"
	"shelfsync/internal/application/commands"
)

var bookFlags struct {
	term, availability, category string
	name, no, author, publisher  string
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Manage the catalogue",
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books ordered by book number",
	Long: `List books ordered naturally by book number (A2 before A10).

Examples:
  shelfsync books list
  shelfsync books list --availability issued
  shelfsync books list --category Fiction --term dune`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := application.BookFilter{
			Term:         bookFlags.term,
			Availability: application.ParseAvailability(bookFlags.availability),
			Category:     bookFlags.category,
		}
		books, err := commands.NewListBooksCommand(GetStore(), filter).Execute(context.Background())
		if err != nil {
			return err
		}
		for _, b := range books {
			state := "available"
			if b.IsIssued() {
				state = "issued until " + *b.ReturnDate
			}
			fmt.Printf("%s  %-6s %s / %s  [%s]  %s\n", b.ID, b.BookNo, b.BookName, b.Author, b.Category, state)
		}
		return nil
	},
}

var booksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book",
	RunE: func(cmd *cobra.Command, args []string) error {
		book := application.Book{
			BookName:  bookFlags.name,
			BookNo:    bookFlags.no,
			Author:    bookFlags.author,
			Publisher: bookFlags.publisher,
			Category:  bookFlags.category,
		}
		result, err := commands.NewAddBookCommand(GetStore(), book).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var booksUpdateCmd = &cobra.Command{
	Use:   "update <book-id>",
	Short: "Edit a book's catalogue fields",
	Long: `Edit a book's catalogue fields. Flags left out keep their current value.
Lending state is never changed here.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, ok := GetStore().Snapshot().BookByID(args[0])
		if !ok {
			return fmt.Errorf("book %s not found", args[0])
		}
		flags := cmd.Flags()
		if flags.Changed("name") {
			current.BookName = bookFlags.name
		}
		if flags.Changed("no") {
			current.BookNo = bookFlags.no
		}
		if flags.Changed("author") {
			current.Author = bookFlags.author
		}
		if flags.Changed("publisher") {
			current.Publisher = bookFlags.publisher
		}
		if flags.Changed("category") {
			current.Category = bookFlags.category
		}

		result, err := commands.NewUpdateBookCommand(GetStore(), current).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var booksDeleteCmd = &cobra.Command{
	Use:   "delete <book-id>",
	Short: "Delete an available book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewDeleteBookCommand(GetStore(), args[0]).Execute(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var booksIssuedCmd = &cobra.Command{
	Use:   "issued [term]",
	Short: "List books currently lent out",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := ""
		if len(args) == 1 {
			term = args[0]
		}
		books, err := commands.NewIssuedBooksCommand(GetStore(), term).Execute(context.Background())
		if err != nil {
			return err
		}
		for _, b := range books {
			borrower := "(deleted member)"
			if b.Borrower != nil {
				borrower = fmt.Sprintf("%s (%s)", b.Borrower.Name, b.Borrower.RegisterNumber)
			}
			fmt.Printf("%s  %-6s %s  to %s  issued %s  due %s\n",
				b.ID, b.BookNo, b.BookName, borrower, *b.IssuedDate, *b.ReturnDate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd)
	booksCmd.AddCommand(booksListCmd, booksAddCmd, booksUpdateCmd, booksDeleteCmd, booksIssuedCmd)

	booksListCmd.Flags().StringVarP(&bookFlags.term, "term", "t", "", "match name, author or book number")
	booksListCmd.Flags().StringVarP(&bookFlags.availability, "availability", "a", "all", "all, available or issued")
	booksListCmd.Flags().StringVarP(&bookFlags.category, "category", "c", "", "only this category")

	for _, c := range []*cobra.Command{booksAddCmd, booksUpdateCmd} {
		c.Flags().StringVar(&bookFlags.name, "name", "", "book name")
		c.Flags().StringVar(&bookFlags.no, "no", "", "book number (shelf code)")
		c.Flags().StringVar(&bookFlags.author, "author", "", "author")
		c.Flags().StringVar(&bookFlags.publisher, "publisher", "", "publisher")
		c.Flags().StringVar(&bookFlags.category, "category", "", "category")
	}
	booksAddCmd.MarkFlagRequired("name")
}
