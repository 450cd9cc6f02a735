package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kanoloa/cbclient/pkg/model"
	"github.com/kanoloa/cbclient/pkg/shape"
)

// Operation names used in errors, logs and metrics.
const (
	OpListProjects     = "list_projects"
	OpListTrackerItems = "list_tracker_items"
	OpCreateItem       = "create_item"
	OpUpdateItem       = "update_item"
	OpBulkUpdateItems  = "bulk_update_items"
	OpDeleteItem       = "delete_item"
	OpAddChildItem     = "add_child_item"
	OpCreateBaseline   = "create_baseline"
	OpQueryItems       = "query_items"
)

// ListProjects returns the projects visible to the connection's user.
// An empty project list is an ErrEmptyResult failure.
func (c *Client) ListProjects(ctx context.Context) ([]model.ProjectReference, error) {
	resp, err := c.send(ctx, call{
		op:       OpListProjects,
		endpoint: "/projects",
		method:   http.MethodGet,
		path:     "/projects",
	})
	if err != nil {
		return nil, err
	}

	return decode[[]model.ProjectReference](c, OpListProjects, resp, shape.ClassifyProjectReferenceArray)
}

// ListTrackerItems returns the first page of item references of a tracker.
// A tracker without items is an ErrEmptyResult failure.
func (c *Client) ListTrackerItems(ctx context.Context, trackerID int) (*model.TrackerItemReferenceSearchResult, error) {
	resp, err := c.send(ctx, call{
		op:       OpListTrackerItems,
		endpoint: "/trackers/{id}/items",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/trackers/%d/items", trackerID),
	})
	if err != nil {
		return nil, err
	}

	result, err := decode[model.TrackerItemReferenceSearchResult](c, OpListTrackerItems, resp, shape.ClassifyTrackerItemReferenceSearchResult)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateItem creates item in a tracker. The item must have a name and a
// description; otherwise no request is sent.
func (c *Client) CreateItem(ctx context.Context, trackerID int, item model.TrackerItem) (*model.TrackerItem, error) {
	if item.Name == "" || item.Description == "" {
		return nil, c.preconditionError(OpCreateItem, errors.New("item requires a name and a description"))
	}

	resp, err := c.send(ctx, call{
		op:       OpCreateItem,
		endpoint: "/trackers/{id}/items",
		method:   http.MethodPost,
		path:     fmt.Sprintf("/trackers/%d/items", trackerID),
		body:     item,
	})
	if err != nil {
		return nil, err
	}

	return c.decodeItem(OpCreateItem, resp)
}

// UpdateItem sets field values of an item. At least one field or table value
// is required; otherwise no request is sent.
func (c *Client) UpdateItem(ctx context.Context, itemID int, fields model.UpdateTrackerItemField) (*model.TrackerItem, error) {
	if err := c.checkPayload(OpUpdateItem, fields, shape.IsUpdateTrackerItemField,
		"update requires fieldValues or tableValues"); err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, call{
		op:       OpUpdateItem,
		endpoint: "/items/{id}/fields",
		method:   http.MethodPut,
		path:     fmt.Sprintf("/items/%d/fields", itemID),
		body:     fields,
	})
	if err != nil {
		return nil, err
	}

	return c.decodeItem(OpUpdateItem, resp)
}

// BulkUpdateItems updates several items in one request. Every element needs a
// positive item id and at least one field value; otherwise no request is sent.
// Per-item failures are reported in the response, not as an error.
func (c *Client) BulkUpdateItems(ctx context.Context, items []model.BulkUpdateTrackerItemFields) (*model.BulkOperationResponse, error) {
	if err := c.checkPayload(OpBulkUpdateItems, items, shape.IsBulkUpdateTrackerItemFieldsArray,
		"bulk update requires at least one element, each with an itemId and fieldValues"); err != nil {
		return nil, err
	}
	for i, it := range items {
		if it.ItemID <= 0 {
			return nil, c.preconditionError(OpBulkUpdateItems, fmt.Errorf("element %d: itemId must be positive, got %d", i, it.ItemID))
		}
	}

	resp, err := c.send(ctx, call{
		op:       OpBulkUpdateItems,
		endpoint: "/items/fields",
		method:   http.MethodPut,
		path:     "/items/fields",
		body:     items,
	})
	if err != nil {
		return nil, err
	}

	result, err := decode[model.BulkOperationResponse](c, OpBulkUpdateItems, resp, predicate(shape.IsBulkOperationResponse))
	if err != nil {
		return nil, err
	}

	if len(result.FailedOperations) > 0 {
		c.logger.Warn().
			Int("succeeded", result.SuccessfulOperationsCount).
			Int("failed", len(result.FailedOperations)).
			Msg("Bulk update partially failed")
	}
	return &result, nil
}

// DeleteItem deletes an item and returns the deleted record.
func (c *Client) DeleteItem(ctx context.Context, itemID int) (*model.TrackerItem, error) {
	resp, err := c.send(ctx, call{
		op:       OpDeleteItem,
		endpoint: "/items/{id}",
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/items/%d", itemID),
	})
	if err != nil {
		return nil, err
	}

	return c.decodeItem(OpDeleteItem, resp)
}

// AddChildItem places an existing item under a parent item.
func (c *Client) AddChildItem(ctx context.Context, parentID, childID int) (*model.TrackerItemChildReference, error) {
	if parentID <= 0 || childID <= 0 {
		return nil, c.preconditionError(OpAddChildItem, fmt.Errorf("parent and child ids must be positive, got %d and %d", parentID, childID))
	}
	if parentID == childID {
		return nil, c.preconditionError(OpAddChildItem, fmt.Errorf("item %d cannot be its own child", parentID))
	}

	body := model.TrackerItemChildReference{
		ItemReference: model.AbstractReference{
			ID:   childID,
			Type: model.TypeTrackerItemReference,
		},
	}

	resp, err := c.send(ctx, call{
		op:       OpAddChildItem,
		endpoint: "/items/{id}/children",
		method:   http.MethodPost,
		path:     fmt.Sprintf("/items/%d/children", parentID),
		body:     body,
	})
	if err != nil {
		return nil, err
	}

	result, err := decode[model.TrackerItemChildReference](c, OpAddChildItem, resp, predicate(shape.IsTrackerItemChildReference))
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateBaseline creates a baseline of a project. The baseline needs a name
// and a positive project id.
func (c *Client) CreateBaseline(ctx context.Context, req model.CreateBaselineRequest) (*model.BaselineReference, error) {
	if req.Name == "" {
		return nil, c.preconditionError(OpCreateBaseline, errors.New("baseline requires a name"))
	}
	if req.Project.ID <= 0 {
		return nil, c.preconditionError(OpCreateBaseline, fmt.Errorf("baseline requires a project id, got %d", req.Project.ID))
	}
	if req.Project.Type == "" {
		req.Project.Type = model.TypeProjectReference
	}

	resp, err := c.send(ctx, call{
		op:       OpCreateBaseline,
		endpoint: "/baselines",
		method:   http.MethodPost,
		path:     "/baselines",
		body:     req,
	})
	if err != nil {
		return nil, err
	}

	result, err := decode[model.BaselineReference](c, OpCreateBaseline, resp, predicate(shape.IsBaselineReference))
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) decodeItem(op string, resp *response) (*model.TrackerItem, error) {
	item, err := decode[model.TrackerItem](c, op, resp, predicate(shape.IsTrackerItem))
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// checkPayload validates the JSON form of payload before it is sent.
func (c *Client) checkPayload(op string, payload any, valid func(any) bool, reason string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return c.preconditionError(op, fmt.Errorf("encode payload: %w", err))
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return c.preconditionError(op, fmt.Errorf("decode payload: %w", err))
	}

	if !valid(value) {
		return c.preconditionError(op, errors.New(reason))
	}
	return nil
}
