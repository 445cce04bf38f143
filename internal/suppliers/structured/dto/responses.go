package dto

// Source-shaped records of the structured feed. Transient: they exist only
// between fetch and reconciliation.

type CategoryRecord struct {
	ID        int64             `json:"id"`
	Names     map[string]string `json:"names"`
	ParentID  int64             `json:"parent_id"`
	SortOrder int               `json:"sort_order"`
	Visible   bool              `json:"visible"`
}

type ManufacturerRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info"`
}

type ParameterOptionRecord struct {
	ID        int64             `json:"id"`
	Names     map[string]string `json:"names"`
	SortOrder int               `json:"order"`
}

type ParameterRecord struct {
	ID        int64                   `json:"id"`
	Names     map[string]string       `json:"names"`
	SortOrder int                     `json:"order"`
	Options   []ParameterOptionRecord `json:"options"`
}

type ParameterValueRecord struct {
	ParameterID int64 `json:"parameter_id"`
	OptionID    int64 `json:"option_id"`
}

type ProductRecord struct {
	ID              int64                  `json:"id"`
	ReferenceNumber string                 `json:"reference_number"`
	ManufacturerID  int64                  `json:"manufacturer_id"`
	CategoryIDs     []int64                `json:"category_ids"`
	Names           map[string]string      `json:"names"`
	BasePrice       float64                `json:"base_price"`
	DiscountPct     float64                `json:"discount_pct"`
	StatusCode      int                    `json:"status"`
	Images          []string               `json:"images"`
	Values          []ParameterValueRecord `json:"values"`
}

type DocumentRecord struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
}

type CategoriesResponse struct {
	Data []CategoryRecord `json:"data"`
}

type ManufacturersResponse struct {
	Data []ManufacturerRecord `json:"data"`
}

type ParametersResponse struct {
	Data []ParameterRecord `json:"data"`
}

type ProductsResponse struct {
	Data []ProductRecord `json:"data"`
}

type DocumentsResponse struct {
	Data []DocumentRecord `json:"data"`
}
