package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/kanoloa/cbclient/pkg/model"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newBaselineCommand(a *app) *cobra.Command {
	var (
		projectID   int
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Create a project baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}

			baseline, err := c.CreateBaseline(cmd.Context(), model.CreateBaselineRequest{
				Name:        name,
				Description: description,
				Project:     model.AbstractReference{ID: projectID},
			})
			if err != nil {
				return fmt.Errorf("failed to create baseline: %w", err)
			}

			return render(cmd.OutOrStdout(), a.output(), baseline, func(w io.Writer) error {
				table := tablewriter.NewWriter(w)
				table.Header("ID", "Name")
				_ = table.Append(strconv.Itoa(baseline.ID), baseline.Name)
				return table.Render()
			})
		},
	}

	cmd.Flags().IntVarP(&projectID, "project", "p", 0, "project id (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "baseline name (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "baseline description")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
