package products

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	Name    string          `json:"name" validate:"required,max=200"`
	Price   decimal.Decimal `json:"price"`
	Taxable *bool           `json:"taxable,omitempty"`
}

type UpdateProductRequest struct {
	Name    *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Price   *decimal.Decimal `json:"price,omitempty"`
	Taxable *bool            `json:"taxable,omitempty"`
}

type ListProductsRequest struct {
	UserID int64
	Search *string
	Limit  int
	Offset int
}
