package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"shelfsync/internal/application"
	"shelfsync/internal/application/commands"
	"shelfsync/internal/engine"
	"shelfsync/internal/ports"
)

// StatusSource reports sync state
type StatusSource interface {
	Status() engine.Status
}

// RegisterReadTools adds all read-only library tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, store ports.LibraryStore, status StatusSource) {
	s.AddTool(listBooksTool(), listBooksHandler(store))
	s.AddTool(issuedBooksTool(), issuedBooksHandler(store))
	s.AddTool(listMembersTool(), listMembersHandler(store))
	s.AddTool(memberHistoryTool(), memberHistoryHandler(store))
	s.AddTool(summaryTool(), summaryHandler(store))
	s.AddTool(listGroupsTool(), listGroupsHandler(store))
	if status != nil {
		s.AddTool(syncStatusTool(), syncStatusHandler(status))
	}
}

// --- list_books ---

func listBooksTool() mcp.Tool {
	return mcp.NewTool("list_books",
		mcp.WithDescription("List the catalogue ordered by book number. Filters combine."),
		mcp.WithString("term",
			mcp.Description("Text matched against book name, author and book number"),
		),
		mcp.WithString("availability",
			mcp.Description("all, available or issued (default all)"),
		),
		mcp.WithString("category",
			mcp.Description("Only books of this category"),
		),
	)
}

func listBooksHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := application.BookFilter{
			Term:         req.GetString("term", ""),
			Availability: application.ParseAvailability(req.GetString("availability", "")),
			Category:     req.GetString("category", ""),
		}
		books, err := commands.NewListBooksCommand(store, filter).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(books, formatBook)
	}
}

// --- issued_books ---

func issuedBooksTool() mcp.Tool {
	return mcp.NewTool("issued_books",
		mcp.WithDescription("List books currently lent out with their borrower and due date."),
		mcp.WithString("term",
			mcp.Description("Text matched against book name or number and borrower name or register number"),
		),
	)
}

func issuedBooksHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		books, err := commands.NewIssuedBooksCommand(store, req.GetString("term", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(books, formatIssued)
	}
}

// --- list_members ---

func listMembersTool() mcp.Tool {
	return mcp.NewTool("list_members",
		mcp.WithDescription("List members, optionally only those of one class."),
		mcp.WithString("class",
			mcp.Description("Class name"),
		),
	)
}

func listMembersHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		members, err := commands.NewListMembersCommand(store, req.GetString("class", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(members, formatMember)
	}
}

// --- member_history ---

func memberHistoryTool() mcp.Tool {
	return mcp.NewTool("member_history",
		mcp.WithDescription("Show every book a member has borrowed."),
		mcp.WithString("member_id",
			mcp.Description("Member id"),
			mcp.Required(),
		),
	)
}

func memberHistoryHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewMemberHistoryCommand(store, req.GetString("member_id", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(res.Entries) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("%s has no lending history.", res.Member.Name)), nil
		}
		var sb strings.Builder
		for _, e := range res.Entries {
			fmt.Fprintf(&sb, "%s  issued %s  due %s  %s", e.BookName, e.IssuedDate, e.ReturnDate, e.Status)
			if e.ReturnedOn != nil {
				fmt.Fprintf(&sb, " %s", *e.ReturnedOn)
			}
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- summary ---

func summaryTool() mcp.Tool {
	return mcp.NewTool("summary",
		mcp.WithDescription("Headline counters: books, members, issued books and categories."),
	)
}

func summaryHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s, err := commands.NewSummaryCommand(store).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("books: %d\nmembers: %d\nissued: %d\ncategories: %d\n",
			s.TotalBooks, s.TotalMembers, s.IssuedBooks, s.TotalCategories)), nil
	}
}

// --- list_groups ---

func listGroupsTool() mcp.Tool {
	return mcp.NewTool("list_groups",
		mcp.WithDescription("List book categories and member classes."),
	)
}

func listGroupsHandler(store ports.LibraryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		categories, classes, err := commands.NewListGroupsCommand(store).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("categories: %s\nclasses: %s\n",
			strings.Join(categories, ", "), strings.Join(classes, ", "))), nil
	}
}

// --- sync_status ---

func syncStatusTool() mcp.Tool {
	return mcp.NewTool("sync_status",
		mcp.WithDescription("Report whether the remote store is reachable and whether local changes await a push."),
	)
}

func syncStatusHandler(status StatusSource) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(formatStatus(status.Status())), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatBook(b application.Book) string {
	state := "available"
	if b.IsIssued() {
		state = "issued"
	}
	return fmt.Sprintf("%s  %s  %s  %s  [%s]  %s", b.ID, b.BookNo, b.BookName, b.Author, b.Category, state)
}

func formatIssued(b commands.IssuedBook) string {
	borrower := "(unknown member)"
	if b.Borrower != nil {
		borrower = fmt.Sprintf("%s (%s)", b.Borrower.Name, b.Borrower.RegisterNumber)
	}
	due := ""
	if b.ReturnDate != nil {
		due = *b.ReturnDate
	}
	return fmt.Sprintf("%s  %s  %s  to %s  due %s", b.ID, b.BookNo, b.BookName, borrower, due)
}

func formatMember(m application.Member) string {
	return fmt.Sprintf("%s  %s  %s  [%s]  joined %s", m.ID, m.RegisterNumber, m.Name, m.Class, m.JoinDate)
}

func formatStatus(s engine.Status) string {
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
