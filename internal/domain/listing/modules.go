package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"hwportal/internal/platform/backend"
)

var ErrRecordNotFound = errors.New("record not found")

// Backend is the subset of the upstream client list views use.
type Backend interface {
	List(ctx context.Context, method string, req backend.ListRequest) (backend.ListResponse, error)
	GetDoc(ctx context.Context, doctype, name string, out any) error
}

// Module describes one list view: where it fetches from and what it shows.
type Module struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Endpoint    string   `json:"-"`
	Doctype     string   `json:"-"`
	SearchParam string   `json:"searchParam"`
	Statuses    []string `json:"statuses"`
	// Aggregated modules expect status aggregates from the backend and
	// fall back to page-local counts when they are missing.
	Aggregated bool `json:"aggregated"`
}

// Definition binds a module to its row type.
type Definition[T any] struct {
	Module
	decode func(json.RawMessage) (T, error)
	status func(T) string
}

// Fetcher returns the function a Store uses to load pages of this module.
func (d Definition[T]) Fetcher(b Backend, methodPrefix string) Fetcher[T] {
	method := d.Endpoint
	if methodPrefix != "" {
		method = methodPrefix + "." + d.Endpoint
	}
	return func(ctx context.Context, f Filters) (Result[T], error) {
		resp, err := b.List(ctx, method, backend.ListRequest{
			Page:        f.Page,
			PageSize:    f.PageSize,
			Status:      f.Status,
			Facilities:  f.Facilities,
			Search:      f.Search,
			SearchParam: d.SearchParam,
			DateFrom:    f.DateFrom,
			DateTo:      f.DateTo,
		})
		if err != nil {
			return Result[T]{}, err
		}

		items := make([]T, 0, len(resp.Items))
		for _, raw := range resp.Items {
			item, err := d.decode(raw)
			if err != nil {
				slog.Warn("skipping undecodable row", "module", d.Key, "err", err)
				continue
			}
			items = append(items, item)
		}

		result := Result[T]{Items: items, TotalCount: max(resp.TotalCount, len(items))}
		if d.Aggregated {
			result.Aggregates = DecodeAggregate(resp.StatusAggregates)
			if result.Aggregates == nil {
				statuses := make([]string, 0, len(items))
				for _, item := range items {
					statuses = append(statuses, d.status(item))
				}
				local := CountPageStatuses(statuses)
				result.Aggregates = &local
			}
		}
		return result, nil
	}
}

// Detail loads a single record of this module.
func (d Definition[T]) Detail(ctx context.Context, b Backend, id string) (T, error) {
	var zero T
	var raw json.RawMessage
	if err := b.GetDoc(ctx, d.Doctype, id, &raw); err != nil {
		if backend.IsNotFound(err) {
			return zero, ErrRecordNotFound
		}
		return zero, fmt.Errorf("get %s %s: %w", d.Key, id, err)
	}
	item, err := d.decode(raw)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %v", backend.ErrMalformedResponse, d.Key, err)
	}
	return item, nil
}

func decodeWith[D any, T any](conv func(D) T) func(json.RawMessage) (T, error) {
	return func(raw json.RawMessage) (T, error) {
		var dto D
		if err := json.Unmarshal(raw, &dto); err != nil {
			var zero T
			return zero, err
		}
		return conv(dto), nil
	}
}

var Affiliations = Definition[Affiliation]{
	Module: Module{
		Key:         "affiliations",
		Title:       "Affiliations",
		Endpoint:    "affiliations.get_affiliations",
		Doctype:     "Health Professional Affiliation",
		SearchParam: "professional_name",
		Statuses:    []string{"Pending", "Confirmed", "Active", "Rejected", "Expired", "Inactive"},
		Aggregated:  true,
	},
	decode: decodeWith(affiliationDTO.row),
	status: func(a Affiliation) string { return a.Status },
}

var ExpenseClaims = Definition[ExpenseClaim]{
	Module: Module{
		Key:         "expense-claims",
		Title:       "Expense Claims",
		Endpoint:    "expense_claims.get_expense_claims",
		Doctype:     "Expense Claim",
		SearchParam: "employee_name",
		Statuses:    []string{"Draft", "Unpaid", "Paid", "Rejected", "Cancelled"},
	},
	decode: decodeWith(expenseClaimDTO.row),
	status: func(e ExpenseClaim) string { return e.Status },
}

var PurchaseOrders = Definition[PurchaseOrder]{
	Module: Module{
		Key:         "purchase-orders",
		Title:       "Purchase Orders",
		Endpoint:    "purchase_orders.get_purchase_orders",
		Doctype:     "Purchase Order",
		SearchParam: "supplier",
		Statuses:    []string{"Draft", "To Receive and Bill", "To Bill", "To Receive", "Completed", "Cancelled", "Closed"},
	},
	decode: decodeWith(purchaseOrderDTO.row),
	status: func(p PurchaseOrder) string { return p.Status },
}

var MaterialRequests = Definition[MaterialRequest]{
	Module: Module{
		Key:         "material-requests",
		Title:       "Material Requests",
		Endpoint:    "material_requests.get_material_requests",
		Doctype:     "Material Request",
		SearchParam: "search",
		Statuses:    []string{"Draft", "Pending", "Partially Ordered", "Ordered", "Issued", "Transferred", "Received", "Stopped", "Cancelled"},
	},
	decode: decodeWith(materialRequestDTO.row),
	status: func(m MaterialRequest) string { return m.Status },
}

var Assets = Definition[Asset]{
	Module: Module{
		Key:         "assets",
		Title:       "Assets",
		Endpoint:    "assets.get_assets",
		Doctype:     "Asset",
		SearchParam: "asset_name",
		Statuses:    []string{"Draft", "Submitted", "In Maintenance", "Out of Order", "Scrapped", "Sold"},
	},
	decode: decodeWith(assetDTO.row),
	status: func(a Asset) string { return a.Status },
}

var Facilities = Definition[Facility]{
	Module: Module{
		Key:         "facilities",
		Title:       "Facilities",
		Endpoint:    "facilities.get_facilities",
		Doctype:     "Health Facility",
		SearchParam: "facility_name",
		Statuses:    []string{"Active", "Inactive"},
	},
	decode: decodeWith(facilityDTO.row),
	status: func(f Facility) string { return f.Status },
}

// Modules lists every list view in menu order.
func Modules() []Module {
	return []Module{
		Affiliations.Module,
		ExpenseClaims.Module,
		PurchaseOrders.Module,
		MaterialRequests.Module,
		Assets.Module,
		Facilities.Module,
	}
}
