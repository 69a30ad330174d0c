// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/trackfluence/trackfluence/app/dto"
	"github.com/trackfluence/trackfluence/app/middleware"
	businessflow "github.com/trackfluence/trackfluence/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ProductHandlerInterface defines the contract for product handlers
type ProductHandlerInterface interface {
	CreateProduct(c fiber.Ctx) error
	ListProducts(c fiber.Ctx) error
	GetProduct(c fiber.Ctx) error
}

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	productFlow businessflow.ProductFlow
	validator   *validator.Validate
}

// NewProductHandler creates a new product handler
func NewProductHandler(productFlow businessflow.ProductFlow) *ProductHandler {
	return &ProductHandler{
		productFlow: productFlow,
		validator:   validator.New(),
	}
}

func (h *ProductHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ProductHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateProduct registers a product owned by the caller
func (h *ProductHandler) CreateProduct(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.CreateProductRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UserID = userID

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.productFlow.CreateProduct(ctx, &req)
	if err != nil {
		log.Println("Product creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Product creation failed", "PRODUCT_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Product created successfully", result)
}

// ListProducts returns the shared product catalog, newest first
func (h *ProductHandler) ListProducts(c fiber.Ctx) error {
	if _, ok := middleware.GetUserIDFromContext(c); !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.productFlow.ListProducts(ctx, page, limit)
	if err != nil {
		if businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Product listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Product listing failed", "PRODUCT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"items":      result.Items,
		"pagination": result.Pagination,
	})
}

// GetProduct returns a single product by ID
func (h *ProductHandler) GetProduct(c fiber.Ctx) error {
	if _, ok := middleware.GetUserIDFromContext(c); !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	productID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid product ID", "INVALID_PRODUCT_ID", nil)
	}

	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	result, err := h.productFlow.GetProduct(ctx, productID)
	if err != nil {
		if businessflow.IsProductNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Product not found", "PRODUCT_NOT_FOUND", nil)
		}

		log.Println("Product retrieval failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Product retrieval failed", "PRODUCT_GET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Product retrieved successfully", result)
}
