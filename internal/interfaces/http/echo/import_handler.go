package echo

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
)

// HeaderUserID carries the caller identity set by the upstream auth proxy.
const HeaderUserID = "X-User-ID"

type ImportHandler struct {
	upload app.UploadImportFile
	start  app.StartImport
	list   app.ListImportJobs
	get    app.GetImportJob
	fields app.ListEntityFields
}

type startImportRequest struct {
	EntityType      string               `json:"entity_type"`
	FileURL         string               `json:"file_url"`
	FileName        string               `json:"file_name"`
	Mapping         domain.ColumnMapping `json:"mapping"`
	DuplicatePolicy string               `json:"duplicate_policy"`
	TemplateID      string               `json:"template_id"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewImportHandler(
	upload app.UploadImportFile,
	start app.StartImport,
	list app.ListImportJobs,
	get app.GetImportJob,
	fields app.ListEntityFields,
) *ImportHandler {
	return &ImportHandler{upload: upload, start: start, list: list, get: get, fields: fields}
}

func (h *ImportHandler) UploadFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "multipart field \"file\" is required",
		}})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "uploaded file could not be read",
		}})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "uploaded file could not be read",
		}})
	}

	out, err := h.upload.Execute(c.Request().Context(), app.UploadImportFileInput{
		Data:        data,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		return writeError(c, err, "failed to store file")
	}

	return c.JSON(http.StatusCreated, apiResponse{Data: out})
}

func (h *ImportHandler) StartImport(c echo.Context) error {
	var req startImportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "invalid request body",
		}})
	}

	out, err := h.start.Execute(c.Request().Context(), app.StartImportInput{
		EntityType:      req.EntityType,
		FileURL:         req.FileURL,
		FileName:        req.FileName,
		Mapping:         req.Mapping,
		DuplicatePolicy: req.DuplicatePolicy,
		TemplateID:      req.TemplateID,
		CreatedBy:       c.Request().Header.Get(HeaderUserID),
	})
	if err != nil {
		return writeError(c, err, "failed to start import")
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *ImportHandler) ListImportJobs(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{Code: "bad_request", Message: err.Error()}})
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{Code: "bad_request", Message: err.Error()}})
	}

	out, err := h.list.Execute(c.Request().Context(), app.ListImportJobsInput{
		EntityType: c.QueryParam("entity_type"),
		Status:     c.QueryParam("status"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return writeError(c, err, "failed to list import jobs")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) GetImportJob(c echo.Context) error {
	out, err := h.get.Execute(c.Request().Context(), app.GetImportJobInput{
		ID: c.Param("id"),
	})
	if err != nil {
		return writeError(c, err, "failed to get import job")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) ListEntityFields(c echo.Context) error {
	out, err := h.fields.Execute(c.Request().Context(), app.ListEntityFieldsInput{
		EntityType: c.Param("entity"),
	})
	if err != nil {
		return writeError(c, err, "failed to list entity fields")
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return value, nil
}

// writeError maps use case errors to status codes. Client errors echo the
// wrapped message; anything else gets the generic internalMessage.
func writeError(c echo.Context, err error, internalMessage string) error {
	status, code := http.StatusInternalServerError, "internal_error"

	switch {
	case errors.Is(err, app.ErrFileTooLarge):
		status, code = http.StatusRequestEntityTooLarge, "file_too_large"
	case errors.Is(err, app.ErrUnsupportedFileType):
		status, code = http.StatusUnsupportedMediaType, "unsupported_file_type"
	case errors.Is(err, app.ErrInvalidSpreadsheet):
		status, code = http.StatusBadRequest, "invalid_spreadsheet"
	case errors.Is(err, app.ErrInvalidTemplate):
		status, code = http.StatusBadRequest, "invalid_template"
	case errors.Is(err, app.ErrInvalidImportRequest):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, app.ErrImportJobNotFound), errors.Is(err, app.ErrTemplateNotFound):
		status, code = http.StatusNotFound, "not_found"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = internalMessage
	}

	return c.JSON(status, apiResponse{Error: &errorBody{Code: code, Message: message}})
}
