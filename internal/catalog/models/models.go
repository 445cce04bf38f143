package models

import "time"

// Names maps a language code onto display text.
type Names map[string]string

func (n Names) Any() string {
	if v, ok := n["en"]; ok && v != "" {
		return v
	}
	for _, v := range n {
		if v != "" {
			return v
		}
	}
	return ""
}

// Category is a node of the local catalog tree. The two feeds use
// incompatible identity systems, so a category carries at most one key per
// originating source: ExternalID for the structured feed, ScrapedKey (the
// composite "rawId|parentInternalId") for the scraped one.
type Category struct {
	ID         int
	ExternalID *int64
	ScrapedKey *string
	Slug       string
	Names      Names
	ParentID   *int
	SortOrder  int
	Visible    bool
}

type Manufacturer struct {
	ID          int
	ExternalID  *int64
	Name        string
	ContactInfo string
}

// Parameter is a specification definition scoped to a category.
// ScrapedKey is the inferred "prop_<key>" field key for the scraped feed.
type Parameter struct {
	ID         int
	ExternalID *int64
	ScrapedKey *string
	CategoryID int
	Names      Names
	SortOrder  int
}

type ParameterOption struct {
	ID          int
	ExternalID  *int64
	ParameterID int
	Names       Names
	SortOrder   int
}

type ProductStatus string

const (
	ProductActive       ProductStatus = "active"
	ProductHidden       ProductStatus = "hidden"
	ProductDiscontinued ProductStatus = "discontinued"
)

type Product struct {
	ID              int
	ExternalID      *int64
	SKU             *string
	ReferenceNumber string
	CategoryID      int
	ManufacturerID  int
	Names           Names
	BasePrice       float64
	// DiscountPct is the stored pricing rule; SalePrice is always recomputed
	// from BasePrice and DiscountPct, never taken from a feed field.
	DiscountPct float64
	SalePrice   float64
	Status      ProductStatus
	Images      []string
}

type ProductParameter struct {
	ProductID   int
	ParameterID int
	OptionID    int
}

type SyncStatus string

const (
	SyncInProgress SyncStatus = "IN_PROGRESS"
	SyncSuccess    SyncStatus = "SUCCESS"
	SyncFailed     SyncStatus = "FAILED"
)

// SyncRun is the audit record of one synchronization invocation.
type SyncRun struct {
	ID            int
	CorrelationID string
	SyncType      string
	Status        SyncStatus
	StartedAt     time.Time
	DurationMs    int64
	Processed     int
	Created       int
	Updated       int
	Skipped       int
	Errors        int
	Message       string
}
