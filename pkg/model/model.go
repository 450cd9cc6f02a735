// Package model defines the Codebeamer REST API records exchanged by the client.
//
// Records are plain values: the client never keeps them beyond a single call.
// JSON names follow the remote schema (camelCase).
package model

import "encoding/json"

// Reference type names used by the remote service in "type" discriminators.
const (
	TypeProjectReference     = "ProjectReference"
	TypeTrackerReference     = "TrackerReference"
	TypeTrackerItemReference = "TrackerItemReference"
	TypeTextFieldValue       = "TextFieldValue"
	TypeChoiceFieldValue     = "ChoiceFieldValue"
	TypeBoolFieldValue       = "BoolFieldValue"
	TypeIntegerFieldValue    = "IntegerFieldValue"
	TypeTableFieldValue      = "TableFieldValue"
)

// AbstractReference is the generic {id, name, type} reference used for
// statuses, subjects, trackers and choice values.
type AbstractReference struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// ProjectReference identifies a project visible to the user.
type ProjectReference struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// TrackerItemReferenceData carries the reference-level suspect settings.
type TrackerItemReferenceData struct {
	SuspectPropagation string `json:"suspectPropagation,omitempty"`
}

// TrackerItemReference is the lightweight item reference returned by the
// tracker item listing.
type TrackerItemReference struct {
	ID                int                       `json:"id"`
	Name              string                    `json:"name"`
	Type              string                    `json:"type,omitempty"`
	AngularIcon       string                    `json:"angularIcon,omitempty"`
	CommonItemID      int                       `json:"commonItemId,omitempty"`
	IconColor         string                    `json:"iconColor,omitempty"`
	PropagateSuspects bool                      `json:"propagateSuspects,omitempty"`
	ReferenceData     *TrackerItemReferenceData `json:"referenceData,omitempty"`
	TestStepReuse     bool                      `json:"testStepReuse,omitempty"`
	TrackerKey        string                    `json:"trackerKey,omitempty"`
	TrackerTypeID     int                       `json:"trackerTypeId,omitempty"`
	URI               string                    `json:"uri,omitempty"`
}

// TrackerItemReferenceSearchResult is one page of a tracker's item listing.
type TrackerItemReferenceSearchResult struct {
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
	Total    int                    `json:"total"`
	ItemRefs []TrackerItemReference `json:"itemRefs"`
}

// TrackerItemSearchResult is both one page of /items/query and the
// accumulated result of a paged query.
type TrackerItemSearchResult struct {
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int           `json:"total"`
	Items    []TrackerItem `json:"items"`
}

// AbstractFieldValue is a tagged field value used both when reading custom
// fields and when building update payloads. Value holds a string, bool or
// number; Values holds references for choice fields and Rows the cells of a
// table field. A values array matching neither form is kept in RawValues.
type AbstractFieldValue struct {
	FieldID   int                    `json:"fieldId"`
	Type      string                 `json:"type"`
	Name      string                 `json:"name,omitempty"`
	Value     any                    `json:"value,omitempty"`
	Values    []AbstractReference    `json:"-"`
	Rows      [][]AbstractFieldValue `json:"-"`
	RawValues json.RawMessage        `json:"-"`
}

type fieldValueJSON struct {
	FieldID int             `json:"fieldId"`
	Type    string          `json:"type"`
	Name    string          `json:"name,omitempty"`
	Value   any             `json:"value,omitempty"`
	Values  json.RawMessage `json:"values,omitempty"`
}

// UnmarshalJSON accepts every field value kind the server sends.
func (f *AbstractFieldValue) UnmarshalJSON(data []byte) error {
	var aux fieldValueJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*f = AbstractFieldValue{
		FieldID: aux.FieldID,
		Type:    aux.Type,
		Name:    aux.Name,
		Value:   aux.Value,
	}
	if len(aux.Values) == 0 || string(aux.Values) == "null" {
		return nil
	}

	var refs []AbstractReference
	if err := json.Unmarshal(aux.Values, &refs); err == nil {
		f.Values = refs
		return nil
	}
	var rows [][]AbstractFieldValue
	if err := json.Unmarshal(aux.Values, &rows); err == nil {
		f.Rows = rows
		return nil
	}
	f.RawValues = append(json.RawMessage(nil), aux.Values...)
	return nil
}

// MarshalJSON writes Rows, Values or RawValues, in that order of preference,
// as the values array.
func (f AbstractFieldValue) MarshalJSON() ([]byte, error) {
	aux := fieldValueJSON{
		FieldID: f.FieldID,
		Type:    f.Type,
		Name:    f.Name,
		Value:   f.Value,
	}

	var err error
	switch {
	case len(f.Rows) > 0:
		aux.Values, err = json.Marshal(f.Rows)
	case len(f.Values) > 0:
		aux.Values, err = json.Marshal(f.Values)
	case len(f.RawValues) > 0:
		aux.Values = f.RawValues
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(aux)
}

// TableFieldValue is the value of a table field: rows of cell values.
type TableFieldValue struct {
	FieldID int                    `json:"fieldId"`
	Type    string                 `json:"type,omitempty"`
	Name    string                 `json:"name,omitempty"`
	Values  [][]AbstractFieldValue `json:"values,omitempty"`
}

// TrackerItem is a single record within a tracker.
type TrackerItem struct {
	ID                int                  `json:"id,omitempty"`
	Name              string               `json:"name,omitempty"`
	Description       string               `json:"description,omitempty"`
	DescriptionFormat string               `json:"descriptionFormat,omitempty"`
	Status            *AbstractReference   `json:"status,omitempty"`
	Subjects          []AbstractReference  `json:"subjects,omitempty"`
	Tracker           *AbstractReference   `json:"tracker,omitempty"`
	Priority          *AbstractReference   `json:"priority,omitempty"`
	AssignedTo        []AbstractReference  `json:"assignedTo,omitempty"`
	CustomFields      []AbstractFieldValue `json:"customFields,omitempty"`
	Version           int                  `json:"version,omitempty"`
	CreatedAt         string               `json:"createdAt,omitempty"`
	ModifiedAt        string               `json:"modifiedAt,omitempty"`
}

// CustomField returns the custom field with the given name.
func (t TrackerItem) CustomField(name string) (AbstractFieldValue, bool) {
	for _, f := range t.CustomFields {
		if f.Name == name {
			return f, true
		}
	}
	return AbstractFieldValue{}, false
}

// UpdateTrackerItemField is the payload of PUT /items/{id}/fields.
type UpdateTrackerItemField struct {
	FieldValues []AbstractFieldValue `json:"fieldValues,omitempty"`
	TableValues []TableFieldValue    `json:"tableValues,omitempty"`
}

// BulkUpdateTrackerItemFields is one element of the PUT /items/fields payload.
type BulkUpdateTrackerItemFields struct {
	ItemID      int                  `json:"itemId"`
	FieldValues []AbstractFieldValue `json:"fieldValues"`
	TableValues []TableFieldValue    `json:"tableValues,omitempty"`
}

// FailedOperation describes one rejected element of a bulk operation.
type FailedOperation struct {
	ID        int    `json:"id"`
	Exception string `json:"exception,omitempty"`
}

// BulkOperationResponse is the result of a bulk update.
type BulkOperationResponse struct {
	SuccessfulOperationsCount int               `json:"successfulOperationsCount"`
	FailedOperations          []FailedOperation `json:"failedOperations,omitempty"`
}

// TrackerItemChildReference places an item under a parent item.
type TrackerItemChildReference struct {
	Index         *int              `json:"index,omitempty"`
	ItemReference AbstractReference `json:"itemReference"`
}

// CreateBaselineRequest is the payload of POST /baselines.
type CreateBaselineRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Project     AbstractReference `json:"project"`
}

// BaselineReference identifies a created baseline.
type BaselineReference struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ErrorResponse is the body the remote service sends with 4xx/5xx statuses.
type ErrorResponse struct {
	Message     string `json:"message"`
	ResourceURI string `json:"resourceUri,omitempty"`
}
