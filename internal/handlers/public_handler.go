package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ITA-F-2025/institute-service/internal/services"
	"github.com/ITA-F-2025/institute-service/internal/utils"
)

// PublicHandler serves the unauthenticated course catalog.
type PublicHandler struct {
	BaseHandler
	courseService   services.CourseService
	categoryService services.CategoryService
}

func NewPublicHandler(courseService services.CourseService, categoryService services.CategoryService, logger utils.Logger) *PublicHandler {
	return &PublicHandler{
		BaseHandler:     NewBaseHandler(logger),
		courseService:   courseService,
		categoryService: categoryService,
	}
}

// ListCatalog lists active courses without authentication
// @Summary Public course catalog
// @Tags catalog
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Search query"
// @Param level query string false "Filter by level"
// @Param category_id query int false "Filter by category"
// @Success 200 {object} services.CourseListResponse
// @Router /catalog/courses [get]
func (h *PublicHandler) ListCatalog(c *gin.Context) {
	filters := parseCourseFilters(c)

	resp, err := h.courseService.PublicList(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListCatalogCategories lists active categories without authentication
// @Summary Public category list
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Category
// @Router /catalog/categories [get]
func (h *PublicHandler) ListCatalogCategories(c *gin.Context) {
	categories, err := h.categoryService.PublicList(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

// GetCatalogCourse retrieves one active course without authentication
// @Summary Public course detail
// @Tags catalog
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /catalog/courses/{id} [get]
func (h *PublicHandler) GetCatalogCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resp, err := h.courseService.PublicGet(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
