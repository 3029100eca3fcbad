// Package cli provides conversation management commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chatsweep/chatsweep/internal/events"
	"github.com/chatsweep/chatsweep/internal/models"
	"github.com/chatsweep/chatsweep/internal/progress"
	"github.com/chatsweep/chatsweep/internal/state"
)

// listFlags are the fetch shaping flags shared by list and search.
type listFlags struct {
	limit     int
	sortBy    string
	direction string
	filters   []string
	all       bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "Maximum conversations to fetch (0 = one batch)")
	cmd.Flags().StringVar(&f.sortBy, "sort", "", "Sort key: created, updated or title")
	cmd.Flags().StringVar(&f.direction, "direction", "", "Sort direction: asc or desc")
	cmd.Flags().StringSliceVar(&f.filters, "filter", nil, "Recency filter: new, modified or stale (repeatable, AND semantics)")
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, "Fetch the entire history")
}

func (f *listFlags) settings() (state.Settings, error) {
	var settings state.Settings

	if f.sortBy != "" {
		key, ok := models.ParseSortKey(f.sortBy)
		if !ok {
			return settings, fmt.Errorf("invalid sort key %q (want created, updated or title)", f.sortBy)
		}
		settings.SortBy = key
	}
	switch f.direction {
	case "":
	case "asc":
		settings.SortDirection = models.SortAscending
	case "desc":
		settings.SortDirection = models.SortDescending
	default:
		return settings, fmt.Errorf("invalid sort direction %q (want asc or desc)", f.direction)
	}
	for _, raw := range f.filters {
		filter, ok := models.ParseRecencyFilter(raw)
		if !ok {
			return settings, fmt.Errorf("invalid filter %q (want new, modified or stale)", raw)
		}
		settings.Filters = append(settings.Filters, filter)
	}

	return settings, nil
}

// newListCmd creates the 'list' command.
func newListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations",
		Long: `List conversations from your chat history.

By default one batch is fetched. Use --limit to fetch more, or --all to
fetch the entire history.

Example:
  # First batch, backend order
  chatsweep list

  # Everything, oldest first
  chatsweep list --all --sort created --direction asc

  # Conversations untouched for over a day
  chatsweep list --all --filter stale`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, bus, err := buildListState(flags)
			if err != nil {
				return err
			}

			if err := loadConversations(GetContext(), s, bus, flags.fetchTarget()); err != nil {
				return err
			}

			printConversations(s.View(), s.Count(), s.HasMore())
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// newSearchCmd creates the 'search' command.
func newSearchCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search fetched conversations by title or id",
		Long: `Fetch conversations and filter them by a case-insensitive substring
match against title and id. The match runs locally over the fetched
window; combine with --all to search the entire history.

Example:
  chatsweep search "kubernetes" --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, bus, err := buildListState(flags)
			if err != nil {
				return err
			}

			if err := loadConversations(GetContext(), s, bus, flags.fetchTarget()); err != nil {
				return err
			}

			s.Search(args[0])
			view := s.View()
			if len(view) == 0 {
				fmt.Printf("No conversations matching %q (searched %d)\n", args[0], s.Count())
				return nil
			}
			printConversations(view, s.Count(), s.HasMore())
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// newRmCmd creates the 'rm' command.
func newRmCmd() *cobra.Command {
	var (
		flags     listFlags
		yes       bool
		deleteAll bool
	)

	cmd := &cobra.Command{
		Use:   "rm [id...]",
		Short: "Delete conversations",
		Long: `Delete conversations by id, or everything matching the fetch flags
with --match-all.

Deletion is permanent on the platform. A confirmation prompt is shown
unless --yes is given.

Example:
  chatsweep rm 67cfd9f4-0bbe-4ce5-a9dc-3e618c95ac6e

  # Delete every stale conversation
  chatsweep rm --match-all --filter stale --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(bulkRequest{
				action:   state.BulkDelete,
				ids:      args,
				matchAll: deleteAll,
				flags:    flags,
				yes:      yes,
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&deleteAll, "match-all", false, "Delete everything matching the fetch flags")
	return cmd
}

// newArchiveCmd creates the 'archive' or 'unarchive' command.
func newArchiveCmd(archive bool) *cobra.Command {
	var (
		flags    listFlags
		yes      bool
		matchAll bool
	)

	use, short := "archive [id...]", "Archive conversations"
	action := state.BulkArchive
	if !archive {
		use, short = "unarchive [id...]", "Unarchive conversations"
		action = state.BulkUnarchive
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(bulkRequest{
				action:   action,
				ids:      args,
				matchAll: matchAll,
				flags:    flags,
				yes:      yes,
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&matchAll, "match-all", false, short+" everything matching the fetch flags")
	return cmd
}

// fetchTarget translates flags into a total fetch target: 0 means one
// batch, -1 means everything.
func (f *listFlags) fetchTarget() int {
	if f.all {
		return -1
	}
	return f.limit
}

type bulkRequest struct {
	action   state.BulkAction
	ids      []string
	matchAll bool
	flags    listFlags
	yes      bool
}

func runBulk(req bulkRequest) error {
	if len(req.ids) == 0 && !req.matchAll {
		return errors.New("no conversation ids given (or use --match-all)")
	}
	if len(req.ids) > 0 && req.matchAll {
		return errors.New("--match-all cannot be combined with explicit ids")
	}

	s, bus, err := buildListState(req.flags)
	if err != nil {
		return err
	}
	ctx := GetContext()

	ids := req.ids
	if req.matchAll {
		// Fetch everything the flags describe and select it all.
		if err := loadConversations(ctx, s, bus, -1); err != nil {
			return err
		}
		s.SelectAll()
		ids = s.SelectedIDs()
		if len(ids) == 0 {
			fmt.Println("Nothing to do")
			return nil
		}
	}

	if !req.yes {
		ok, err := confirmAction(fmt.Sprintf("%s %d conversation(s)?", capitalize(string(req.action)), len(ids)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted")
			return nil
		}
	}

	switch req.action {
	case state.BulkDelete:
		err = s.Delete(ctx, ids)
	case state.BulkArchive:
		err = s.Archive(ctx, ids)
	case state.BulkUnarchive:
		err = s.Unarchive(ctx, ids)
	}

	var partial *state.PartialBulkError
	if errors.As(err, &partial) {
		fmt.Printf("%d of %d failed:\n", len(partial.Failed), len(ids))
		for _, id := range partial.FailedIDs() {
			fmt.Printf("  %s: %v\n", id, partial.Failed[id])
		}
		return err
	}
	if err != nil {
		return err
	}

	fmt.Printf("%d conversation(s) %sd\n", len(ids), req.action)
	return nil
}

// buildListState wires a ConversationListState with an observable bus.
func buildListState(flags listFlags) (*state.ConversationListState, *events.Bus, error) {
	settings, err := flags.settings()
	if err != nil {
		return nil, nil, err
	}

	client, cfg, err := getAPIClient()
	if err != nil {
		return nil, nil, err
	}

	bus := events.NewBus(0)
	return newListState(client, cfg, bus, settings), bus, nil
}

// loadConversations drives the list state until the target is met or the
// history is exhausted. target -1 means everything, 0 means one batch.
func loadConversations(ctx context.Context, s *state.ConversationListState, bus *events.Bus, target int) error {
	errCh := bus.Subscribe(state.EventListError)
	defer bus.Unsubscribe(state.EventListError, errCh)

	reporter := progress.NewCLI()
	reporter.Start(-1, "Fetching conversations")
	defer reporter.Finish()

	fetchErr := func() error {
		select {
		case ev := <-errCh:
			if e, ok := ev.(*state.ListErrorEvent); ok {
				return e.Err
			}
			return errors.New("conversation fetch failed")
		default:
			return nil
		}
	}

	s.Start(ctx)
	for {
		if err := waitIdle(ctx, s); err != nil {
			return err
		}
		if err := fetchErr(); err != nil {
			return err
		}
		reporter.Update(int64(s.Count()))

		if !s.HasMore() {
			return nil
		}
		if target == 0 || (target > 0 && s.Count() >= target) {
			return nil
		}
		s.LoadMore(ctx)
	}
}

// waitIdle blocks until no fetch is in flight.
func waitIdle(ctx context.Context, s *state.ConversationListState) error {
	for s.IsLoading() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
	return nil
}

// printConversations renders the view to stdout.
func printConversations(view []models.Conversation, total int, hasMore bool) {
	if len(view) == 0 {
		fmt.Println("No conversations found")
		return
	}

	fmt.Printf("Found %d conversation(s):\n\n", total)
	for i, c := range view {
		flags := make([]string, 0, 2)
		if c.Archived {
			flags = append(flags, "archived")
		}
		if c.IsNew {
			flags = append(flags, "new")
		} else if c.RecentlyModified {
			flags = append(flags, "modified")
		}
		marker := ""
		if len(flags) > 0 {
			marker = " [" + strings.Join(flags, ", ") + "]"
		}

		fmt.Printf("#%d %s%s\n", i+1, c.Title, marker)
		fmt.Printf("  ID: %s\n", c.ID)
		fmt.Printf("  Created: %s\n", c.CreatedAt.Format(time.RFC3339))
		fmt.Printf("  Updated: %s\n", c.UpdatedAt.Format(time.RFC3339))
		fmt.Println()
	}

	if hasMore {
		fmt.Println("(More conversations available. Use --limit or --all to fetch them)")
	}
}
