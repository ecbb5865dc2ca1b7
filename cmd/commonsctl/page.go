package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lllypuk/commons/internal/domain/paging"
)

var pageMoves = map[string]func(paging.Window) paging.Window{
	"current":  func(w paging.Window) paging.Window { return w },
	"first":    paging.Window.FirstPage,
	"next":     paging.Window.NextPage,
	"previous": paging.Window.PreviousPage,
	"last":     paging.Window.LastPage,
}

func newPageCmd() *cobra.Command {
	var (
		start, size, total int
		asJSON             bool
	)

	cmd := &cobra.Command{
		Use:       "page {current|first|next|previous|last}",
		Short:     "Compute a page window from a start offset, page size and total",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"current", "first", "next", "previous", "last"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := pageMoves[args[0]](paging.NewWindow(start, size, total))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(w)
			}
			_, err := fmt.Fprintf(out, "start=%d size=%d count=%d total=%d page=%d/%d\n",
				w.Start(), w.Size(), w.Count(), w.Total(), w.PageNumber(), w.PageCount())
			return err
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "zero-based offset of the current page")
	cmd.Flags().IntVar(&size, "size", 20, "page size")
	cmd.Flags().IntVar(&total, "total", 0, "number of items in the result set")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the window as JSON")
	return cmd
}
