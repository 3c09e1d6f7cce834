package cart

type addItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// Quantity is a pointer so an explicit 0 is distinguishable from a missing field.
type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}
