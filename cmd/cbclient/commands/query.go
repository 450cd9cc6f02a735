package commands

import (
	"fmt"
	"io"

	"github.com/kanoloa/cbclient/pkg/client"
	"github.com/kanoloa/cbclient/pkg/pagination"
	"github.com/spf13/cobra"
)

func newQueryCommand(a *app) *cobra.Command {
	var (
		startPage int
		pageSize  int
	)

	cmd := &cobra.Command{
		Use:   "query CBQL",
		Short: "Run a cBQL query",
		Long: `Run a cBQL query and fetch every page of the result.

Example:
  cbclient query "project.id IN (3) AND tracker.id IN (42)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}

			result, report, queryErr := c.QueryItemsWithReport(cmd.Context(), args[0],
				client.WithStartPage(startPage),
				client.WithPageSize(pageSize),
			)

			a.logger.Debug().
				Str("query_id", report.QueryID).
				Str("stop", string(report.Stop)).
				Int("requests", report.Requests).
				Msg("Query finished")

			// Items read before a failure are still shown.
			if len(result.Items) > 0 || queryErr == nil {
				err := render(cmd.OutOrStdout(), a.output(), result, func(w io.Writer) error {
					if err := renderItemsTable(w, result.Items); err != nil {
						return err
					}
					_, err := fmt.Fprintf(w, "\n%d of %d items, %d pages.\n", len(result.Items), result.Total, report.Pages)
					return err
				})
				if err != nil {
					return err
				}
			}

			if queryErr != nil {
				return fmt.Errorf("query stopped after %d items (%s): %w", len(result.Items), report.Stop, queryErr)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&startPage, "start-page", pagination.DefaultStartPage, "first page to request")
	cmd.Flags().IntVar(&pageSize, "page-size", pagination.DefaultPageSize, "items per page")

	return cmd
}
