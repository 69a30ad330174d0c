// Package businessflow contains the core business logic and use cases for campaign tracking workflows
package businessflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/models"
	"github.com/trackfluence/trackfluence/repository"
	"github.com/trackfluence/trackfluence/utils"
)

// ProductFlow handles product catalog operations
type ProductFlow interface {
	CreateProduct(ctx context.Context, request *dto.CreateProductRequest) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, page, limit int) (*dto.ListProductsResponse, error)
	GetProduct(ctx context.Context, productID uint) (*dto.ProductResponse, error)
}

// ProductFlowImpl implements the product business flow
type ProductFlowImpl struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

// NewProductFlow creates a new product flow instance
func NewProductFlow(productRepo repository.ProductRepository, userRepo repository.UserRepository) ProductFlow {
	return &ProductFlowImpl{
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// CreateProduct registers a product owned by the caller
func (pf *ProductFlowImpl) CreateProduct(ctx context.Context, request *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	user, err := pf.userRepo.ByID(ctx, request.UserID)
	if err != nil {
		return nil, NewBusinessError("PRODUCT_CREATE_FAILED", "Product creation failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("PRODUCT_CREATE_FAILED", "Product creation failed", ErrUserNotFound)
	}

	product := &models.Product{
		UUID:        uuid.New(),
		UserID:      user.ID,
		Name:        request.Name,
		Description: request.Description,
		Price:       request.Price,
		CreatedAt:   utils.UTCNow(),
	}

	if err := pf.productRepo.Save(ctx, product); err != nil {
		return nil, NewBusinessError("PRODUCT_CREATE_FAILED", "Product creation failed", err)
	}

	resp := ToProductResponse(*product)
	return &resp, nil
}

// ListProducts returns the whole catalog, newest first. The catalog is shared
// across users; ownership only matters for creation.
func (pf *ProductFlowImpl) ListProducts(ctx context.Context, page, limit int) (*dto.ListProductsResponse, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		return nil, NewBusinessError("PRODUCT_LIST_FAILED", "Product listing failed", ErrInvalidPageSize)
	}

	var filter models.ProductFilter

	total, err := pf.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("PRODUCT_LIST_FAILED", "Product listing failed", err)
	}

	products, err := pf.productRepo.ByFilter(ctx, filter, "created_at DESC", limit, (page-1)*limit)
	if err != nil {
		return nil, NewBusinessError("PRODUCT_LIST_FAILED", "Product listing failed", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for _, product := range products {
		items = append(items, ToProductResponse(*product))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &dto.ListProductsResponse{
		Message: "Products retrieved successfully",
		Items:   items,
		Pagination: dto.PaginationInfo{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}, nil
}

// GetProduct retrieves a single product
func (pf *ProductFlowImpl) GetProduct(ctx context.Context, productID uint) (*dto.ProductResponse, error) {
	product, err := pf.productRepo.ByID(ctx, productID)
	if err != nil {
		return nil, NewBusinessError("PRODUCT_GET_FAILED", "Product retrieval failed", err)
	}
	if product == nil {
		return nil, NewBusinessError("PRODUCT_NOT_FOUND", "Product not found", ErrProductNotFound)
	}

	resp := ToProductResponse(*product)
	return &resp, nil
}
