package userdata

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"llm-service/internal/shared/server/middleware"
	"llm-service/internal/shared/server/respond"
	"llm-service/internal/shared/telemetry"
)

type createRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	IsActive *bool  `json:"isActive"`
}

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/data/users", h.create)
	rg.GET("/data/users", h.list)
	rg.GET("/data/users/:id", h.get)
}

func (h *Handler) create(c *gin.Context) {
	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "invalid request body", fieldIssues(err))
		return
	}
	in := CreateInput{Name: body.Name, Email: body.Email, IsActive: true}
	if body.IsActive != nil {
		in.IsActive = *body.IsActive
	}
	rec, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.Created(c, c.FullPath()+"/"+strconv.FormatInt(rec.ID, 10), rec)
}

func (h *Handler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "id must be an integer", []map[string]string{
			{"field": "id", "issue": "must be an integer"},
		})
		return
	}
	rec, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) list(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		h.writeError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", DefaultLimit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	records, err := h.Svc.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, records)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", validationErr.Error(), []map[string]string{
			{"field": validationErr.Field, "issue": validationErr.Msg},
		})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrEmailTaken):
		respond.Error(c, http.StatusConflict, "email_taken", err.Error(), nil)
	default:
		telemetry.Error("userdata.unexpected_error", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to access user data", nil)
	}
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: name, Msg: "must be an integer"}
	}
	return v, nil
}

func fieldIssues(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{
			"field": jsonFieldName(fe.Field()),
			"issue": fe.Tag(),
		})
	}
	return out
}

func jsonFieldName(field string) string {
	switch field {
	case "IsActive":
		return "isActive"
	default:
		return strings.ToLower(field)
	}
}
