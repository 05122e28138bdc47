// Package parts holds the catalog records the parts-lookup backend streams
// alongside assistant text.
package parts

import "encoding/json"

// Product is a single catalog entry attached to an assistant turn.
type Product struct {
	PartNumber    string  `json:"part_number"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
	Category      string  `json:"category,omitempty"`
	ApplianceType string  `json:"appliance_type,omitempty"`
	InStock       bool    `json:"in_stock"`
}

// Compatibility is the backend's verdict on whether a part fits a model.
type Compatibility struct {
	Compatible  bool    `json:"compatible"`
	PartNumber  string  `json:"part_number"`
	ModelNumber string  `json:"model_number"`
	Confidence  float64 `json:"confidence,omitempty"`
	Explanation string  `json:"explanation"`
}

// UnmarshalJSON decodes a product, treating a missing in_stock field as in
// stock the way the backend schema does.
func (p *Product) UnmarshalJSON(data []byte) error {
	type product Product
	decoded := product{InStock: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Product(decoded)
	return nil
}
