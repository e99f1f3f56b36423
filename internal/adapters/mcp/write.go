package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"shelfsync/internal/adapters/tabular"
	"shelfsync/internal/application"
	"shelfsync/internal/application/commands"
	"shelfsync/internal/ports"
)

// RegisterWriteTools adds all write library tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, store ports.LibraryStore) {
	s.AddTool(issueTool(), issueHandler(store))
	s.AddTool(returnTool(), returnHandler(store))
	s.AddTool(reissueTool(), reissueHandler(store))
	s.AddTool(addBookTool(), addBookHandler(store))
	s.AddTool(deleteBookTool(), deleteBookHandler(store))
	s.AddTool(addMemberTool(), addMemberHandler(store))
	s.AddTool(deleteMemberTool(), deleteMemberHandler(store))
	s.AddTool(groupTool("add_category", "Register a book category.", "name"), addCategoryHandler(store))
	s.AddTool(groupTool("delete_category", "Delete a category and every book in it.", "name"), deleteCategoryHandler(store))
	s.AddTool(groupTool("add_class", "Register a member class.", "name"), addClassHandler(store))
	s.AddTool(renameClassTool(), renameClassHandler(store))
	s.AddTool(groupTool("delete_class", "Delete a class and every member enrolled in it.", "name"), deleteClassHandler(store))
	s.AddTool(importTool("import_books", "Import books from a CSV or XLSX file (columns: book no, name, author, publisher).", "category"), importBooksHandler(store))
	s.AddTool(importTool("import_members", "Import members from a CSV or XLSX file (columns: name, register number).", "class"), importMembersHandler(store))
}

// --- lending ---

func issueTool() mcp.Tool {
	return mcp.NewTool("issue_book",
		mcp.WithDescription("Lend an available book to a member for 14 days."),
		mcp.WithString("book_id", mcp.Description("Book id"), mcp.Required()),
		mcp.WithString("member_id", mcp.Description("Member id"), mcp.Required()),
	)
}

func issueHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewIssueBookCommand(store, req.GetString("book_id", ""), req.GetString("member_id", ""))
		return lendingResult(cmd.Execute(ctx))
	}
}

func returnTool() mcp.Tool {
	return mcp.NewTool("return_book",
		mcp.WithDescription("Take an issued book back."),
		mcp.WithString("book_id", mcp.Description("Book id"), mcp.Required()),
	)
}

func returnHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return lendingResult(commands.NewReturnBookCommand(store, req.GetString("book_id", "")).Execute(ctx))
	}
}

func reissueTool() mcp.Tool {
	return mcp.NewTool("reissue_book",
		mcp.WithDescription("Extend the loan of an issued book to 14 days from today."),
		mcp.WithString("book_id", mcp.Description("Book id"), mcp.Required()),
	)
}

func reissueHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return lendingResult(commands.NewReissueBookCommand(store, req.GetString("book_id", "")).Execute(ctx))
	}
}

func lendingResult(res *commands.LendingResult, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(res.Message), nil
}

// --- books ---

func addBookTool() mcp.Tool {
	return mcp.NewTool("add_book",
		mcp.WithDescription("Add a book to the catalogue."),
		mcp.WithString("name", mcp.Description("Book name"), mcp.Required()),
		mcp.WithString("book_no", mcp.Description("Shelf code")),
		mcp.WithString("author", mcp.Description("Author")),
		mcp.WithString("publisher", mcp.Description("Publisher")),
		mcp.WithString("category", mcp.Description("Category name")),
	)
}

func addBookHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		book := application.Book{
			BookName:  req.GetString("name", ""),
			BookNo:    req.GetString("book_no", ""),
			Author:    req.GetString("author", ""),
			Publisher: req.GetString("publisher", ""),
			Category:  req.GetString("category", ""),
		}
		res, err := commands.NewAddBookCommand(store, book).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

func deleteBookTool() mcp.Tool {
	return mcp.NewTool("delete_book",
		mcp.WithDescription("Remove an available book from the catalogue."),
		mcp.WithString("book_id", mcp.Description("Book id"), mcp.Required()),
	)
}

func deleteBookHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewDeleteBookCommand(store, req.GetString("book_id", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

// --- members ---

func addMemberTool() mcp.Tool {
	return mcp.NewTool("add_member",
		mcp.WithDescription("Register a member who joins today."),
		mcp.WithString("name", mcp.Description("Member name"), mcp.Required()),
		mcp.WithString("register_number", mcp.Description("Register number"), mcp.Required()),
		mcp.WithString("class", mcp.Description("Class name")),
	)
}

func addMemberHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		member := application.Member{
			Name:           req.GetString("name", ""),
			RegisterNumber: req.GetString("register_number", ""),
			Class:          req.GetString("class", ""),
		}
		res, err := commands.NewAddMemberCommand(store, member).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

func deleteMemberTool() mcp.Tool {
	return mcp.NewTool("delete_member",
		mcp.WithDescription("Remove a member."),
		mcp.WithString("member_id", mcp.Description("Member id"), mcp.Required()),
	)
}

func deleteMemberHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewDeleteMemberCommand(store, req.GetString("member_id", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

// --- categories and classes ---

func groupTool(name, description, arg string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString(arg, mcp.Description("Name"), mcp.Required()),
	)
}

func addCategoryHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return groupResult(commands.NewAddCategoryCommand(store, req.GetString("name", "")).Execute(ctx))
	}
}

func deleteCategoryHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return groupResult(commands.NewDeleteCategoryCommand(store, req.GetString("name", "")).Execute(ctx))
	}
}

func addClassHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return groupResult(commands.NewAddClassCommand(store, req.GetString("name", "")).Execute(ctx))
	}
}

func deleteClassHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return groupResult(commands.NewDeleteClassCommand(store, req.GetString("name", "")).Execute(ctx))
	}
}

func renameClassTool() mcp.Tool {
	return mcp.NewTool("rename_class",
		mcp.WithDescription("Rename a class and move its members."),
		mcp.WithString("old_name", mcp.Description("Current class name"), mcp.Required()),
		mcp.WithString("new_name", mcp.Description("New class name"), mcp.Required()),
	)
}

func renameClassHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewUpdateClassCommand(store, req.GetString("old_name", ""), req.GetString("new_name", ""))
		return groupResult(cmd.Execute(ctx))
	}
}

func groupResult(res *commands.GroupResult, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(res.Message), nil
}

// --- imports ---

func importTool(name, description, target string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description+" The first row is a header."),
		mcp.WithString("path", mcp.Description("Path of the .csv or .xlsx file"), mcp.Required()),
		mcp.WithString(target, mcp.Description("Destination "+target), mcp.Required()),
	)
}

func importBooksHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rows, err := readRows(req.GetString("path", ""))
		if err != nil {
			return toolError(err)
		}
		res, err := commands.NewImportBooksCommand(store, req.GetString("category", ""), tabular.Books(rows)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

func importMembersHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rows, err := readRows(req.GetString("path", ""))
		if err != nil {
			return toolError(err)
		}
		res, err := commands.NewImportMembersCommand(store, req.GetString("class", ""), tabular.Members(rows)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Message), nil
	}
}

func readRows(path string) ([][]string, error) {
	if err := application.ValidateRequired("path", path); err != nil {
		return nil, err
	}
	rows, err := tabular.ReadFile(path)
	if err != nil {
		return nil, &application.ImportError{Path: path, Reason: err}
	}
	return rows, nil
}
