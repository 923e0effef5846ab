package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"loginload/internal/cli"
	"loginload/internal/storage"
	"loginload/internal/tui/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List saved runs, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			item, err := findRun(store, args[0])
			if err != nil {
				return err
			}
			printRun(out, *item)
			return nil
		}

		items, err := store.List()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(out, "No runs saved yet.")
			return nil
		}

		if browse, _ := cmd.Flags().GetBool("tui"); browse {
			final, err := tea.NewProgram(history.Browser{Model: history.NewModel(items)}).Run()
			if err != nil {
				return err
			}
			if sel := final.(history.Browser).Selected; sel != nil {
				printRun(out, *sel)
			}
			return nil
		}

		printHistory(out, items)
		return nil
	},
}

func init() {
	historyCmd.Flags().Bool("tui", false, "browse runs interactively")
}

// findRun accepts a full id or the short id shown by the listing.
func findRun(store *storage.Store, id string) (*storage.HistoryItem, error) {
	item, err := store.Get(id)
	if err == nil || !errors.Is(err, storage.ErrNotFound) {
		return item, err
	}

	items, listErr := store.List()
	if listErr != nil {
		return nil, listErr
	}
	var match *storage.HistoryItem
	for i := range items {
		if strings.HasPrefix(items[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous run id %q", id)
			}
			match = &items[i]
		}
	}
	if match == nil {
		return nil, err
	}
	return match, nil
}

func printHistory(out io.Writer, items []storage.HistoryItem) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSCENARIO\tMODE\tITER\tREQS\tCHECKS")
	for _, row := range history.Rows(items) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func printRun(out io.Writer, item storage.HistoryItem) {
	fmt.Fprintf(out, "Run %s at %s\n", item.ID, item.Timestamp.Format(time.RFC3339))
	cli.PrintSummary(out, item.Summary)
}
