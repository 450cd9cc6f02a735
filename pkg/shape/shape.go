// Package shape provides runtime predicates that check whether a decoded JSON
// value (as produced by encoding/json into an `any`) looks like a given
// Codebeamer record.
//
// Validators never coerce or repair a value. Search-result shapes whose item
// array is empty are reported as not matching: an empty result set and a
// malformed payload are indistinguishable through the IsX predicates. Use the
// Classify functions when the two cases must be told apart.
package shape

// Class is the outcome of classifying a search-result payload.
type Class int

const (
	// Invalid means the payload does not have the expected structure.
	Invalid Class = iota
	// Empty means the structure is right but the result array has no elements.
	Empty
	// Valid means the structure is right and the result array is non-empty.
	Valid
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case Empty:
		return "empty"
	case Valid:
		return "valid"
	default:
		return "invalid"
	}
}

func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

func hasKeys(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

// arrayAt returns the array stored under key, if there is one.
func arrayAt(m map[string]any, key string) ([]any, bool) {
	a, ok := m[key].([]any)
	return a, ok
}

func nonEmptyArrayAt(m map[string]any, key string) bool {
	a, ok := arrayAt(m, key)
	return ok && len(a) > 0
}

// classifySearch classifies an object that must carry the given keys and a
// result array under arrayKey.
func classifySearch(v any, arrayKey string, keys ...string) Class {
	m, ok := object(v)
	if !ok || !hasKeys(m, keys...) {
		return Invalid
	}
	a, ok := arrayAt(m, arrayKey)
	if !ok {
		return Invalid
	}
	if len(a) == 0 {
		return Empty
	}
	return Valid
}

// IsProjectReference reports whether v is a {id, name} project reference.
func IsProjectReference(v any) bool {
	m, ok := object(v)
	return ok && hasKeys(m, "id", "name")
}

// ClassifyProjectReferenceArray classifies a GET /projects payload.
func ClassifyProjectReferenceArray(v any) Class {
	a, ok := v.([]any)
	if !ok {
		return Invalid
	}
	if len(a) == 0 {
		return Empty
	}
	for _, e := range a {
		if !IsProjectReference(e) {
			return Invalid
		}
	}
	return Valid
}

// IsProjectReferenceArray reports whether v is a non-empty array of project
// references.
func IsProjectReferenceArray(v any) bool {
	return ClassifyProjectReferenceArray(v) == Valid
}

// ClassifyTrackerItemReferenceSearchResult classifies a GET
// /trackers/{id}/items payload.
func ClassifyTrackerItemReferenceSearchResult(v any) Class {
	return classifySearch(v, "itemRefs", "total", "itemRefs")
}

// IsTrackerItemReferenceSearchResult reports whether v carries a total and a
// non-empty itemRefs array.
func IsTrackerItemReferenceSearchResult(v any) bool {
	return ClassifyTrackerItemReferenceSearchResult(v) == Valid
}

// ClassifyTrackerItemSearchResult classifies one page of /items/query.
func ClassifyTrackerItemSearchResult(v any) Class {
	return classifySearch(v, "items", "total", "items")
}

// IsTrackerItemSearchResult reports whether v carries a total and a non-empty
// items array.
func IsTrackerItemSearchResult(v any) bool {
	return ClassifyTrackerItemSearchResult(v) == Valid
}

// IsTrackerItem reports whether v is a tracker item with an id and a name.
func IsTrackerItem(v any) bool {
	m, ok := object(v)
	return ok && hasKeys(m, "id", "name")
}

// IsUpdateTrackerItemField reports whether v carries a non-empty fieldValues
// or a non-empty tableValues array.
func IsUpdateTrackerItemField(v any) bool {
	m, ok := object(v)
	if !ok {
		return false
	}
	return nonEmptyArrayAt(m, "fieldValues") || nonEmptyArrayAt(m, "tableValues")
}

// IsBulkUpdateTrackerItemFields reports whether v has an itemId and a
// non-empty fieldValues array.
func IsBulkUpdateTrackerItemFields(v any) bool {
	m, ok := object(v)
	return ok && hasKeys(m, "itemId") && nonEmptyArrayAt(m, "fieldValues")
}

// IsBulkUpdateTrackerItemFieldsArray reports whether v is a non-empty array
// whose every element is a valid bulk update element.
func IsBulkUpdateTrackerItemFieldsArray(v any) bool {
	a, ok := v.([]any)
	if !ok || len(a) == 0 {
		return false
	}
	for _, e := range a {
		if !IsBulkUpdateTrackerItemFields(e) {
			return false
		}
	}
	return true
}

// IsBulkOperationResponse reports whether v is a bulk operation result.
func IsBulkOperationResponse(v any) bool {
	m, ok := object(v)
	return ok && hasKeys(m, "successfulOperationsCount")
}

// IsTrackerItemChildReference reports whether v carries an itemReference
// object.
func IsTrackerItemChildReference(v any) bool {
	m, ok := object(v)
	if !ok {
		return false
	}
	_, ok = object(m["itemReference"])
	return ok
}

// IsBaselineReference reports whether v is a {id, name} baseline reference.
func IsBaselineReference(v any) bool {
	m, ok := object(v)
	return ok && hasKeys(m, "id", "name")
}

// IsErrorResponse reports whether v looks like a server error body.
func IsErrorResponse(v any) bool {
	m, ok := object(v)
	if !ok {
		return false
	}
	_, ok = m["message"].(string)
	return ok
}
