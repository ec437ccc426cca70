package backend

import (
	"encoding/json"

	"BizDesk/internal/session"
)

// Dashboard represents the data of GET /dashboard
type Dashboard struct {
	Customers  int `json:"customers"`
	Complaints struct {
		Active int `json:"active"`
	} `json:"complaints"`
	Collections struct {
		Today float64 `json:"today"`
	} `json:"collections"`
	Inventory struct {
		LowStock int `json:"lowStock"`
	} `json:"inventory"`
}

// Customer represents a single customer record
type Customer struct {
	ID          session.ID `json:"id,omitempty"`
	Name        string     `json:"name"`
	CardNumber  string     `json:"cardNumber"`
	Mobile      string     `json:"mobile"`
	Address     string     `json:"address,omitempty"`
	Outstanding float64    `json:"outstandingAmount,omitempty"`
}

// CustomerList represents the data of GET /customers
type CustomerList struct {
	Customers  []Customer `json:"customers"`
	Pagination Pagination `json:"pagination"`
}

// CustomerDetail represents the data of GET /customers/:id
type CustomerDetail struct {
	Customer    Customer          `json:"customer"`
	Collections []json.RawMessage `json:"collections"`
	Complaints  []json.RawMessage `json:"complaints"`
}

// Record is a loosely typed row of a list payload
type Record map[string]any

// Listing describes a paginated list endpoint and the columns worth showing
type Listing struct {
	Endpoint  string
	Key       string // field of data holding the rows
	DetailKey string // field of GET Endpoint/:id data holding the record
	Columns   []string
}

// Listings for the remaining page controllers
var (
	Collections = Listing{Endpoint: "/collections", Key: "collections", DetailKey: "collection", Columns: []string{"id", "receiptNumber", "amount", "collectionType", "paymentStatus"}}
	Complaints  = Listing{Endpoint: "/complaints", Key: "complaints", DetailKey: "complaint", Columns: []string{"id", "customerId", "status", "priority", "description"}}
	Expenses    = Listing{Endpoint: "/expenses", Key: "expenses", DetailKey: "expense", Columns: []string{"id", "category", "amount", "date", "description"}}
	Inventory   = Listing{Endpoint: "/inventory", Key: "items", DetailKey: "item", Columns: []string{"id", "name", "category", "quantity", "minQuantity"}}
	Staff       = Listing{Endpoint: "/staff", Key: "staff", DetailKey: "staff", Columns: []string{"id", "name", "role", "mobile", "status"}}
)

// empty reports whether a payload carries nothing to decode
func empty(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}

// Page decodes one page of a listing payload. A missing payload is an empty page.
func (l Listing) Page(data json.RawMessage) ([]Record, Pagination, error) {
	if empty(data) {
		return nil, Pagination{}, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Pagination{}, err
	}

	var rows []Record
	if v, ok := raw[l.Key]; ok {
		if err := json.Unmarshal(v, &rows); err != nil {
			return nil, Pagination{}, err
		}
	}

	var p Pagination
	if v, ok := raw["pagination"]; ok {
		if err := json.Unmarshal(v, &p); err != nil {
			return nil, Pagination{}, err
		}
	}
	return rows, p, nil
}

// Summary decodes the optional summary block of a listing payload
func (l Listing) Summary(data json.RawMessage) (Record, error) {
	if empty(data) {
		return nil, nil
	}
	var payload struct {
		Summary Record `json:"summary"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload.Summary, nil
}

// Detail decodes the single record of GET Endpoint/:id. It returns nil when
// the payload has no record under DetailKey.
func (l Listing) Detail(data json.RawMessage) (Record, error) {
	if empty(data) {
		return nil, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	v, ok := raw[l.DetailKey]
	if !ok {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// StatusUpdate is the body of PUT /collections/:id/status
type StatusUpdate struct {
	PaymentStatus string `json:"paymentStatus"`
}

// Movement is the body of POST /inventory/movement
type Movement struct {
	ItemID        int64  `json:"itemId"`
	Type          string `json:"type"`
	Quantity      int    `json:"quantity"`
	ReferenceType string `json:"referenceType"`
	Notes         string `json:"notes,omitempty"`
}

// InventoryAlerts represents the data of GET /inventory/alerts
type InventoryAlerts struct {
	Alerts []json.RawMessage `json:"alerts"`
}

// ExpenseStats represents the data of GET /expenses/stats
type ExpenseStats struct {
	TodayExpenses   float64 `json:"todayExpenses"`
	WeeklyExpenses  float64 `json:"weeklyExpenses"`
	MonthlyExpenses float64 `json:"monthlyExpenses"`
}

// StaffPerformance represents the data of GET /staff/performance
type StaffPerformance struct {
	Performance []struct {
		Staff struct {
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"staff"`
		Metrics Record `json:"metrics"`
	} `json:"performance"`
}
