package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kanoloa/cbclient/pkg/model"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
)

const (
	defaultYAMLIndent = 2

	// NotAvailable fills table cells without a value.
	NotAvailable = "-"
)

// render writes data in the requested format; table output is produced by
// table.
func render(w io.Writer, format string, data any, table func(io.Writer) error) error {
	switch format {
	case OutputFormatJSON:
		return renderJSON(w, data)
	case OutputFormatYAML:
		return renderYAML(w, data)
	case OutputFormatTable, "":
		return table(w)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func renderJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}
	return nil
}

// renderYAML encodes data as YAML under its JSON field names.
func renderYAML(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultYAMLIndent)

	if err := encoder.Encode(generic); err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}
	return encoder.Close()
}

func renderItemsTable(w io.Writer, items []model.TrackerItem) error {
	if len(items) == 0 {
		_, err := io.WriteString(w, "No items found\n")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Status", "Tracker", "Modified")

	for _, item := range items {
		_ = table.Append(
			strconv.Itoa(item.ID),
			item.Name,
			refName(item.Status),
			refName(item.Tracker),
			orNA(item.ModifiedAt),
		)
	}

	return table.Render()
}

func renderItemTable(w io.Writer, item *model.TrackerItem) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append("ID", strconv.Itoa(item.ID))
	_ = table.Append("Name", item.Name)
	_ = table.Append("Description", orNA(item.Description))
	_ = table.Append("Status", refName(item.Status))
	_ = table.Append("Tracker", refName(item.Tracker))
	_ = table.Append("Version", strconv.Itoa(item.Version))
	for _, field := range item.CustomFields {
		_ = table.Append(field.Name, fieldValue(field))
	}

	return table.Render()
}

func refName(ref *model.AbstractReference) string {
	if ref == nil || ref.Name == "" {
		return NotAvailable
	}
	return ref.Name
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func fieldValue(field model.AbstractFieldValue) string {
	if field.Value != nil {
		return fmt.Sprint(field.Value)
	}
	if len(field.Rows) > 0 {
		return fmt.Sprintf("%d rows", len(field.Rows))
	}
	if len(field.Values) == 0 {
		return NotAvailable
	}

	s := ""
	for i, v := range field.Values {
		if i > 0 {
			s += ", "
		}
		s += v.Name
	}
	return s
}
