package form

import (
	"encoding/json"

	"github.com/ariyeh/bagtag/pkg/models"
)

// Field names shared by the console forms.
const (
	FieldDisplayName          = "display_name"
	FieldBrand                = "brand"
	FieldModel                = "model"
	FieldStyle                = "style"
	FieldColor                = "color"
	FieldMaterial             = "material"
	FieldTagCode              = "tag_code"
	FieldExternalBagID        = "external_bag_id"
	FieldBagID                = "bag_id"
	FieldCustomerItemID       = "customer_item_id"
	FieldEntrupyItemID        = "entrupy_item_id"
	FieldAuthenticationStatus = "authentication_status"
	FieldCertificateURL       = "certificate_url"
	FieldConditionGrade       = "condition_grade"
	FieldDimensions           = "dimensions"
	FieldCatalogRaw           = "catalog_raw"
)

// DefaultEntrupyBagID is the placeholder bag_id shown before any bag is created.
const DefaultEntrupyBagID int64 = 1

var bagFields = []Field{
	{Name: FieldDisplayName, Label: "Display name", Required: true},
	{Name: FieldBrand, Label: "Brand", Required: true},
	{Name: FieldModel, Label: "Model"},
	{Name: FieldStyle, Label: "Style"},
	{Name: FieldColor, Label: "Color"},
	{Name: FieldMaterial, Label: "Material"},
	{Name: FieldTagCode, Label: "Tag code", Required: true},
	{Name: FieldExternalBagID, Label: "External bag ID"},
}

var entrupyFields = []Field{
	{Name: FieldBagID, Label: "Bag ID", Kind: KindInt, Required: true},
	{Name: FieldCustomerItemID, Label: "Customer item ID", Required: true},
	{Name: FieldEntrupyItemID, Label: "Entrupy item ID"},
	{Name: FieldAuthenticationStatus, Label: "Authentication status"},
	{Name: FieldCertificateURL, Label: "Certificate URL"},
	{Name: FieldBrand, Label: "Brand"},
	{Name: FieldModel, Label: "Model"},
	{Name: FieldStyle, Label: "Style"},
	{Name: FieldColor, Label: "Color"},
	{Name: FieldMaterial, Label: "Material"},
	{Name: FieldConditionGrade, Label: "Condition grade"},
	{Name: FieldDimensions, Label: "Dimensions (JSON)", Kind: KindStructured},
	{Name: FieldCatalogRaw, Label: "Catalog raw (JSON)", Kind: KindStructured},
}

var lookupFields = []Field{
	{Name: FieldTagCode, Label: "Tag code", Required: true},
}

// NewBagForm returns an empty bag creation form.
func NewBagForm() *State {
	initial := make(map[string]any, len(bagFields))
	for _, f := range bagFields {
		initial[f.Name] = ""
	}
	return New(bagFields, initial)
}

// NewEntrupyForm returns the authentication form with its sample defaults.
func NewEntrupyForm() *State {
	return New(entrupyFields, map[string]any{
		FieldBagID:                DefaultEntrupyBagID,
		FieldCustomerItemID:       "CUST-001",
		FieldAuthenticationStatus: "pending",
		FieldCertificateURL:       "https://example.com/cert",
		FieldBrand:                "SampleBrand",
		FieldModel:                "SampleModel",
		FieldStyle:                "Tote",
		FieldColor:                "Black",
		FieldMaterial:             "Leather",
		FieldConditionGrade:       "A",
		FieldDimensions: map[string]any{
			"width_cm":  json.Number("30"),
			"height_cm": json.Number("20"),
			"depth_cm":  json.Number("10"),
		},
	})
}

// NewLookupForm returns the tag lookup form.
func NewLookupForm() *State {
	return New(lookupFields, map[string]any{FieldTagCode: ""})
}

// BagRequest builds a creation request from the committed values of a bag form.
func BagRequest(s *State) models.BagCreateRequest {
	return models.BagCreateRequest{
		DisplayName:   s.String(FieldDisplayName),
		Brand:         s.String(FieldBrand),
		Model:         models.OptionalString(s.String(FieldModel)),
		Style:         models.OptionalString(s.String(FieldStyle)),
		Color:         models.OptionalString(s.String(FieldColor)),
		Material:      models.OptionalString(s.String(FieldMaterial)),
		TagCode:       s.String(FieldTagCode),
		ExternalBagID: models.OptionalString(s.String(FieldExternalBagID)),
	}
}

// EntrupyRequest builds an upsert request from the committed values of an
// Entrupy form. Raw text of invalid structured fields is never included.
func EntrupyRequest(s *State) models.EntrupyCreateRequest {
	bagID, _ := s.Int(FieldBagID)
	return models.EntrupyCreateRequest{
		BagID:                bagID,
		CustomerItemID:       s.String(FieldCustomerItemID),
		EntrupyItemID:        models.OptionalString(s.String(FieldEntrupyItemID)),
		AuthenticationStatus: models.OptionalString(s.String(FieldAuthenticationStatus)),
		CertificateURL:       models.OptionalString(s.String(FieldCertificateURL)),
		Brand:                models.OptionalString(s.String(FieldBrand)),
		Model:                models.OptionalString(s.String(FieldModel)),
		Style:                models.OptionalString(s.String(FieldStyle)),
		Color:                models.OptionalString(s.String(FieldColor)),
		Material:             models.OptionalString(s.String(FieldMaterial)),
		Dimensions:           s.Map(FieldDimensions),
		ConditionGrade:       models.OptionalString(s.String(FieldConditionGrade)),
		CatalogRaw:           s.Map(FieldCatalogRaw),
	}
}
