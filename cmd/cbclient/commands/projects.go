package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/kanoloa/cbclient/pkg/model"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newProjectsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List projects",
		Long:    "List the projects visible to the configured user",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd)
			if err != nil {
				return err
			}

			projects, err := c.ListProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}

			return render(cmd.OutOrStdout(), a.output(), projects, func(w io.Writer) error {
				return renderProjectsTable(w, projects)
			})
		},
	}
}

func renderProjectsTable(w io.Writer, projects []model.ProjectReference) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name")

	for _, p := range projects {
		_ = table.Append(strconv.Itoa(p.ID), p.Name)
	}

	return table.Render()
}
