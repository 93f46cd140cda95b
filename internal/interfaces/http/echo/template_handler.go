package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
)

type TemplateHandler struct {
	save   app.SaveImportTemplate
	list   app.ListImportTemplates
	delete app.DeleteImportTemplate
}

type saveTemplateRequest struct {
	Name       string               `json:"name"`
	EntityType string               `json:"entity_type"`
	Mapping    domain.ColumnMapping `json:"mapping"`
}

func NewTemplateHandler(save app.SaveImportTemplate, list app.ListImportTemplates, remove app.DeleteImportTemplate) *TemplateHandler {
	return &TemplateHandler{save: save, list: list, delete: remove}
}

func (h *TemplateHandler) SaveTemplate(c echo.Context) error {
	var req saveTemplateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "invalid request body",
		}})
	}

	out, err := h.save.Execute(c.Request().Context(), app.SaveImportTemplateInput{
		Name:       req.Name,
		EntityType: req.EntityType,
		Mapping:    req.Mapping,
		CreatedBy:  c.Request().Header.Get(HeaderUserID),
	})
	if err != nil {
		return writeError(c, err, "failed to save import template")
	}

	return c.JSON(http.StatusCreated, apiResponse{Data: out})
}

func (h *TemplateHandler) ListTemplates(c echo.Context) error {
	out, err := h.list.Execute(c.Request().Context(), app.ListImportTemplatesInput{
		EntityType: c.QueryParam("entity_type"),
	})
	if err != nil {
		return writeError(c, err, "failed to list import templates")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *TemplateHandler) DeleteTemplate(c echo.Context) error {
	if err := h.delete.Execute(c.Request().Context(), app.DeleteImportTemplateInput{ID: c.Param("id")}); err != nil {
		return writeError(c, err, "failed to delete import template")
	}

	return c.NoContent(http.StatusNoContent)
}
