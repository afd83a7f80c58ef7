package handlers

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
		logger:   logger,
	}
}

// RegisterRoutes registers the product routes. Reads are public; everything
// that changes a product goes through protect.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Get("/:id/discount", h.HandleQuoteDiscount)

	productRoutes.Post("/", protect, h.HandleCreateProduct)
	productRoutes.Put("/:id", protect, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", protect, h.HandleDeleteProduct)
	productRoutes.Post("/:id/stock/reduce", protect, h.HandleReduceStock)
	productRoutes.Post("/:id/stock/increase", protect, h.HandleIncreaseStock)
	productRoutes.Post("/:id/activate", protect, h.HandleActivateProduct)
}

// CreateProductRequest is the body of POST /products. Price accepts a JSON
// number or a decimal string with at most two decimal places. Lengths are
// checked by the model after trimming.
type CreateProductRequest struct {
	Name        string        `json:"name" validate:"required"`
	Category    string        `json:"category" validate:"required"`
	Description string        `json:"description"`
	Price       *models.Price `json:"price" validate:"required"`
	Stock       *models.Stock `json:"stock"`
}

// UpdateProductRequest is the body of PUT /products/:id. Absent fields are left as they are.
type UpdateProductRequest struct {
	Name        *string       `json:"name"`
	Category    *string       `json:"category"`
	Description *string       `json:"description"`
	Price       *models.Price `json:"price"`
	Stock       *models.Stock `json:"stock"`
	IsActive    *bool         `json:"is_active"`
}

// StockRequest is the body of the stock adjustment endpoints.
type StockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// DiscountResponse is returned by GET /products/:id/discount.
type DiscountResponse struct {
	ProductID       uuid.UUID       `json:"product_id"`
	OriginalPrice   models.Price    `json:"original_price"`
	DiscountPercent decimal.Decimal `json:"discount_percentage"`
	DiscountedPrice models.Price    `json:"discounted_price"`
}

// HandleListProducts returns one page of active products, optionally filtered.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	filters := repositories.ProductFilters{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	}

	var err error
	if filters.MinPrice, err = decimalQuery(c, "min_price"); err != nil {
		return badRequest(c, "Invalid min_price", err)
	}
	if filters.MaxPrice, err = decimalQuery(c, "max_price"); err != nil {
		return badRequest(c, "Invalid max_price", err)
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "Invalid active flag", err)
		}
		filters.Active = &active
	}

	result, err := h.service.ListProducts(c.UserContext(), filters, c.QueryInt("page", 1), c.QueryInt("limit", services.DefaultPageLimit))
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve products", err)
	}
	return c.JSON(result)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.logger, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleQuoteDiscount prices the product at ?percentage= off without saving anything.
func (h *ProductHandler) HandleQuoteDiscount(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}
	percentage, err := decimalQuery(c, "percentage")
	if err != nil {
		return badRequest(c, "Invalid percentage", err)
	}
	if percentage == nil {
		return badRequest(c, "percentage query parameter is required", nil)
	}

	quote, err := h.service.QuoteDiscount(c.UserContext(), id, *percentage)
	if err != nil {
		return writeError(c, h.logger, "Could not apply discount", err)
	}
	return c.JSON(DiscountResponse{
		ProductID:       quote.Product.ID,
		OriginalPrice:   quote.Product.Price,
		DiscountPercent: quote.Percentage,
		DiscountedPrice: quote.DiscountedPrice,
	})
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	if err := checkCents(req.Price); err != nil {
		return writeError(c, h.logger, "Could not create product", err)
	}

	input := services.CreateProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       *req.Price,
	}
	if req.Stock != nil {
		input.Stock = *req.Stock
	}

	product, err := h.service.CreateProduct(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.logger, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}
	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	if err := checkCents(req.Price); err != nil {
		return writeError(c, h.logger, "Could not update product", err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, models.ProductChanges{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return writeError(c, h.logger, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct soft-deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return writeError(c, h.logger, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) HandleReduceStock(c *fiber.Ctx) error {
	return h.adjustStock(c, h.service.ReduceStock)
}

func (h *ProductHandler) HandleIncreaseStock(c *fiber.Ctx) error {
	return h.adjustStock(c, h.service.IncreaseStock)
}

// HandleActivateProduct makes a deleted or deactivated product visible again.
func (h *ProductHandler) HandleActivateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}
	product, err := h.service.ActivateProduct(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.logger, "Could not activate product", err)
	}
	return c.JSON(product)
}

type stockAdjustment func(ctx context.Context, id uuid.UUID, quantity int) (*models.Product, error)

func (h *ProductHandler) adjustStock(c *fiber.Ctx, adjust stockAdjustment) error {
	id, err := productID(c)
	if err != nil {
		return badRequest(c, "Invalid product ID", err)
	}
	var req StockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	product, err := adjust(c.UserContext(), id, req.Quantity)
	if err != nil {
		return writeError(c, h.logger, "Could not update stock", err)
	}
	return c.JSON(product)
}

// checkCents rejects prices the DECIMAL(10,2) column would round.
func checkCents(price *models.Price) error {
	if price == nil {
		return nil
	}
	if v := price.Value(); !v.Equal(v.Round(2)) {
		return &models.FieldError{Field: "price", Message: "cannot have more than two decimal places"}
	}
	return nil
}

func productID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func decimalQuery(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
