package handler

import (
	"context"
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/policy"

	"github.com/gin-gonic/gin"
)

// catalogService is the shape shared by the category and genre services.
type catalogService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.CatalogEntryResponse], error)
	Create(ctx context.Context, req dto.CreateCatalogEntryDTO) (*dto.CatalogEntryResponse, error)
	Delete(ctx context.Context, slug string) error
}

// catalogHandler serves slug-addressed lookup collections.
type catalogHandler struct {
	svc catalogService
}

func (h *catalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rule := middleware.Permit(policy.AdminOrReadOnly)
	rg.GET("", rule, h.List)
	rg.POST("", rule, h.Create)
	rg.DELETE("/:slug", rule, h.Delete)
}

func (h *catalogHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.List(ctx, c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *catalogHandler) Create(c *gin.Context) {
	var in dto.CreateCatalogEntryDTO
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Create(ctx, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *catalogHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
