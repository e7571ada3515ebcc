// Package models holds the request and response shapes of the tagging API.
// Response fields are pointers because the backend may omit any of them;
// read them through Value or the accessor methods, never by dereferencing.
package models

import "time"

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Value returns *p, or the zero value when p is nil.
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// OptionalString returns nil for an empty string.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// BagRecord is a bag as returned by the server.
type BagRecord struct {
	ID            *int64     `json:"id,omitempty" yaml:"id,omitempty"`
	ExternalBagID *string    `json:"external_bag_id,omitempty" yaml:"external_bag_id,omitempty"`
	DisplayName   *string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Brand         *string    `json:"brand,omitempty" yaml:"brand,omitempty"`
	Model         *string    `json:"model,omitempty" yaml:"model,omitempty"`
	Style         *string    `json:"style,omitempty" yaml:"style,omitempty"`
	Color         *string    `json:"color,omitempty" yaml:"color,omitempty"`
	Material      *string    `json:"material,omitempty" yaml:"material,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// BagID returns the identifier and whether the server assigned one.
func (b *BagRecord) BagID() (int64, bool) {
	if b == nil || b.ID == nil {
		return 0, false
	}
	return *b.ID, true
}

// Tag is a physical NFC tag and its binding.
type Tag struct {
	ID        *int64     `json:"id,omitempty" yaml:"id,omitempty"`
	TagCode   *string    `json:"tag_code,omitempty" yaml:"tag_code,omitempty"`
	BagID     *int64     `json:"bag_id,omitempty" yaml:"bag_id,omitempty"`
	Status    *string    `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Tag statuses used by the backend.
const (
	TagStatusUnassigned = "unassigned"
	TagStatusAssigned   = "assigned"
)

// BagWithTag is the response of a bag creation.
type BagWithTag struct {
	Bag *BagRecord `json:"bag,omitempty" yaml:"bag,omitempty"`
	Tag *Tag       `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// InventoryRow is one line of the inventory view.
type InventoryRow struct {
	ID          *int64  `json:"id,omitempty" yaml:"id,omitempty"`
	DisplayName *string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Brand       *string `json:"brand,omitempty" yaml:"brand,omitempty"`
	Model       *string `json:"model,omitempty" yaml:"model,omitempty"`
	Style       *string `json:"style,omitempty" yaml:"style,omitempty"`
	Color       *string `json:"color,omitempty" yaml:"color,omitempty"`
	Material    *string `json:"material,omitempty" yaml:"material,omitempty"`
	TagCode     *string `json:"tag_code,omitempty" yaml:"tag_code,omitempty"`
}

// RowFromCreated snapshots a creation response into an inventory row. The
// pointers are copied so later changes to created do not leak into the row.
func RowFromCreated(created BagWithTag) InventoryRow {
	var row InventoryRow
	if b := created.Bag; b != nil {
		row.ID = clonePtr(b.ID)
		row.DisplayName = clonePtr(b.DisplayName)
		row.Brand = clonePtr(b.Brand)
		row.Model = clonePtr(b.Model)
		row.Style = clonePtr(b.Style)
		row.Color = clonePtr(b.Color)
		row.Material = clonePtr(b.Material)
	}
	if t := created.Tag; t != nil {
		row.TagCode = clonePtr(t.TagCode)
	}
	return row
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// EntrupyRecord is an authentication result attached to a bag.
type EntrupyRecord struct {
	ID                   *int64         `json:"id,omitempty" yaml:"id,omitempty"`
	BagID                *int64         `json:"bag_id,omitempty" yaml:"bag_id,omitempty"`
	CustomerItemID       *string        `json:"customer_item_id,omitempty" yaml:"customer_item_id,omitempty"`
	EntrupyItemID        *string        `json:"entrupy_item_id,omitempty" yaml:"entrupy_item_id,omitempty"`
	AuthenticationStatus *string        `json:"authentication_status,omitempty" yaml:"authentication_status,omitempty"`
	CertificateURL       *string        `json:"certificate_url,omitempty" yaml:"certificate_url,omitempty"`
	Brand                *string        `json:"brand,omitempty" yaml:"brand,omitempty"`
	Model                *string        `json:"model,omitempty" yaml:"model,omitempty"`
	Style                *string        `json:"style,omitempty" yaml:"style,omitempty"`
	Color                *string        `json:"color,omitempty" yaml:"color,omitempty"`
	Material             *string        `json:"material,omitempty" yaml:"material,omitempty"`
	Dimensions           map[string]any `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	ConditionGrade       *string        `json:"condition_grade,omitempty" yaml:"condition_grade,omitempty"`
	CatalogRaw           map[string]any `json:"catalog_raw,omitempty" yaml:"catalog_raw,omitempty"`
	CreatedAt            *time.Time     `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt            *time.Time     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// TagLookup is the response of a tag lookup.
type TagLookup struct {
	Tag     *Tag           `json:"tag,omitempty" yaml:"tag,omitempty"`
	Bag     *BagRecord     `json:"bag,omitempty" yaml:"bag,omitempty"`
	Entrupy *EntrupyRecord `json:"entrupy,omitempty" yaml:"entrupy,omitempty"`
}
