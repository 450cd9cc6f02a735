package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kanoloa/cbclient/pkg/model"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newItemsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "items TRACKER_ID",
		Short: "List tracker items",
		Long:  "List the item references of a tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trackerID, err := parseID("tracker", args[0])
			if err != nil {
				return err
			}

			c, err := a.connect(cmd)
			if err != nil {
				return err
			}

			result, err := c.ListTrackerItems(cmd.Context(), trackerID)
			if err != nil {
				return fmt.Errorf("failed to list items of tracker %d: %w", trackerID, err)
			}

			return render(cmd.OutOrStdout(), a.output(), result, func(w io.Writer) error {
				table := tablewriter.NewWriter(w)
				table.Header("ID", "Name", "Key")
				for _, ref := range result.ItemRefs {
					_ = table.Append(strconv.Itoa(ref.ID), ref.Name, orNA(ref.TrackerKey))
				}
				if err := table.Render(); err != nil {
					return err
				}
				_, err := fmt.Fprintf(w, "\nShowing %d of %d items.\n", len(result.ItemRefs), result.Total)
				return err
			})
		},
	}
}

func newCreateCommand(a *app) *cobra.Command {
	var (
		name        string
		description string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "create TRACKER_ID",
		Short: "Create a tracker item",
		Long:  "Create an item with a name and a description in a tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trackerID, err := parseID("tracker", args[0])
			if err != nil {
				return err
			}

			c, err := a.connect(cmd)
			if err != nil {
				return err
			}

			item, err := c.CreateItem(cmd.Context(), trackerID, model.TrackerItem{
				Name:              name,
				Description:       description,
				DescriptionFormat: format,
			})
			if err != nil {
				return fmt.Errorf("failed to create item: %w", err)
			}

			return render(cmd.OutOrStdout(), a.output(), item, func(w io.Writer) error {
				return renderItemTable(w, item)
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "item name (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "item description (required)")
	cmd.Flags().StringVar(&format, "description-format", "", "description format, e.g. PlainText or Wiki")

	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	var (
		data string
		text []string
	)

	cmd := &cobra.Command{
		Use:   "update ITEM_ID",
		Short: "Update item fields",
		Long: `Update field values of an item.

Fields are given as --text FIELD_ID=VALUE pairs or as a JSON
{"fieldValues": [...], "tableValues": [...]} document through --data
(inline or @file).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID("item", args[0])
			if err != nil {
				return err
			}

			var fields model.UpdateTrackerItemField
			if data != "" {
				if err := readJSON(data, &fields); err != nil {
					return err
				}
			}
			values, err := parseTextFields(text)
			if err != nil {
				return err
			}
			fields.FieldValues = append(fields.FieldValues, values...)

			c, err := a.connect(cmd)
			if err != nil {
				return err
			}

			item, err := c.UpdateItem(cmd.Context(), itemID, fields)
			if err != nil {
				return fmt.Errorf("failed to update item %d: %w", itemID, err)
			}

			return render(cmd.OutOrStdout(), a.output(), item, func(w io.Writer) error {
				return renderItemTable(w, item)
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "JSON payload or @file")
	cmd.Flags().StringArrayVar(&text, "text", nil, "text field value as FIELD_ID=VALUE (repeatable)")

	return cmd
}

func newBulkUpdateCommand(a *app) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "bulk-update",
		Short: "Update fields of several items",
		Long:  `Update several items from a JSON array of {"itemId": ..., "fieldValues": [...]} given through --data (inline or @file)`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []model.BulkUpdateTrackerItemFields
			if err := readJSON(data, &items); err != nil {
				return err
			}

			c, err := a.connect(cmd)
			if err != nil {
				return err
			}

			result, err := c.BulkUpdateItems(cmd.Context(), items)
			if err != nil {
				return fmt.Errorf("failed to update items: %w", err)
			}

			return render(cmd.OutOrStdout(), a.output(), result, func(w io.Writer) error {
				if _, err := fmt.Fprintf(w, "%d items updated\n", result.SuccessfulOperationsCount); err != nil {
					return err
				}
				if len(result.FailedOperations) == 0 {
					return nil
				}

				table := tablewriter.NewWriter(w)
				table.Header("Item", "Failure")
				for _, op := range result.FailedOperations {
					_ = table.Append(strconv.Itoa(op.ID), orNA(op.Exception))
				}
				return table.Render()
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "JSON payload or @file (required)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ITEM_ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID("item", args[0])
			if err != nil {
				return err
			}

			c, err := a.connect(cmd)
			if err != nil {
				return err
			}

			item, err := c.DeleteItem(cmd.Context(), itemID)
			if err != nil {
				return fmt.Errorf("failed to delete item %d: %w", itemID, err)
			}

			return render(cmd.OutOrStdout(), a.output(), item, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted item %d (%s)\n", item.ID, item.Name)
				return err
			})
		},
	}
}

func newAddChildCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-child PARENT_ID CHILD_ID",
		Short: "Place an item under a parent item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID("parent", args[0])
			if err != nil {
				return err
			}
			childID, err := parseID("child", args[1])
			if err != nil {
				return err
			}

			c, err := a.connect(cmd)
			if err != nil {
				return err
			}

			ref, err := c.AddChildItem(cmd.Context(), parentID, childID)
			if err != nil {
				return fmt.Errorf("failed to add child %d to item %d: %w", childID, parentID, err)
			}

			return render(cmd.OutOrStdout(), a.output(), ref, func(w io.Writer) error {
				position := NotAvailable
				if ref.Index != nil {
					position = strconv.Itoa(*ref.Index)
				}
				_, err := fmt.Fprintf(w, "Item %d is child of %d at position %s\n", ref.ItemReference.ID, parentID, position)
				return err
			})
		},
	}
}

func parseID(kind, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}

// readJSON decodes an inline JSON document, or the file named after a
// leading "@", into target.
func readJSON(data string, target any) error {
	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// parseTextFields turns FIELD_ID=VALUE pairs into text field values.
func parseTextFields(pairs []string) ([]model.AbstractFieldValue, error) {
	values := make([]model.AbstractFieldValue, 0, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid field %q: expected FIELD_ID=VALUE", pair)
		}
		fieldID, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid field id %q", key)
		}
		values = append(values, model.AbstractFieldValue{
			FieldID: fieldID,
			Type:    model.TypeTextFieldValue,
			Value:   value,
		})
	}
	return values, nil
}
