package dto

import "time"

// CreateProductRequest represents the request to register a product
type CreateProductRequest struct {
	UserID      uint    `json:"-"`
	Name        string  `json:"name" validate:"required,min=2,max=255"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uint      `json:"id"`
	UUID        string    `json:"uuid"`
	UserID      uint      `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListProductsResponse represents a paginated list of products
type ListProductsResponse struct {
	Message    string            `json:"message"`
	Items      []ProductResponse `json:"items"`
	Pagination PaginationInfo    `json:"pagination"`
}
