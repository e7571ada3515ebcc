package models

// BagCreateRequest is the body of POST /api/admin/bags.
type BagCreateRequest struct {
	DisplayName   string  `json:"display_name"`
	Brand         string  `json:"brand"`
	Model         *string `json:"model,omitempty"`
	Style         *string `json:"style,omitempty"`
	Color         *string `json:"color,omitempty"`
	Material      *string `json:"material,omitempty"`
	TagCode       string  `json:"tag_code"`
	ExternalBagID *string `json:"external_bag_id,omitempty"`
}

// EntrupyCreateRequest is the body of POST /api/admin/entrupy.
type EntrupyCreateRequest struct {
	BagID                int64          `json:"bag_id"`
	CustomerItemID       string         `json:"customer_item_id"`
	EntrupyItemID        *string        `json:"entrupy_item_id,omitempty"`
	AuthenticationStatus *string        `json:"authentication_status,omitempty"`
	CertificateURL       *string        `json:"certificate_url,omitempty"`
	Brand                *string        `json:"brand,omitempty"`
	Model                *string        `json:"model,omitempty"`
	Style                *string        `json:"style,omitempty"`
	Color                *string        `json:"color,omitempty"`
	Material             *string        `json:"material,omitempty"`
	Dimensions           map[string]any `json:"dimensions,omitempty"`
	ConditionGrade       *string        `json:"condition_grade,omitempty"`
	CatalogRaw           map[string]any `json:"catalog_raw,omitempty"`
}
