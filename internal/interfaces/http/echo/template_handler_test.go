package echo_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
	httpecho "github.com/bizadmin/record-import/internal/interfaces/http/echo"
)

func newTemplateServer(save *fakeSaveTemplateUseCase, list *fakeListTemplatesUseCase, remove *fakeDeleteTemplateUseCase) *echo.Echo {
	if save == nil {
		save = &fakeSaveTemplateUseCase{}
	}
	if list == nil {
		list = &fakeListTemplatesUseCase{}
	}
	if remove == nil {
		remove = &fakeDeleteTemplateUseCase{}
	}

	e := echo.New()
	httpecho.RegisterRoutes(e, nil, httpecho.NewTemplateHandler(save, list, remove))
	return e
}

func TestSaveTemplateSuccess(t *testing.T) {
	t.Parallel()

	save := &fakeSaveTemplateUseCase{out: app.ImportTemplateOutput{
		ID:         "tpl-1",
		Name:       "Clients",
		EntityType: "client",
		Mapping:    domain.ColumnMapping{{Column: "Name", Field: "name"}},
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	e := newTemplateServer(save, nil, nil)

	body := []byte(`{"name":"Clients","entity_type":"client","mapping":{"Name":"name"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import-templates", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(httpecho.HeaderUserID, "user-7")
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if save.got.Name != "Clients" || save.got.CreatedBy != "user-7" || len(save.got.Mapping) != 1 {
		t.Fatalf("unexpected save input: %+v", save.got)
	}

	data, ok := decodeResponse(t, rec)["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected data payload: %s", rec.Body.String())
	}
	mapping, ok := data["mapping"].(map[string]any)
	if !ok || mapping["Name"] != "name" {
		t.Fatalf("unexpected mapping payload: %#v", data["mapping"])
	}
}

func TestSaveTemplateInvalid(t *testing.T) {
	t.Parallel()

	e := newTemplateServer(&fakeSaveTemplateUseCase{err: fmt.Errorf("%w: name is required", app.ErrInvalidTemplate)}, nil, nil)

	body := []byte(`{"name":"","entity_type":"client","mapping":{"Name":"name"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import-templates", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_template" {
		t.Fatalf("expected invalid_template, got %q", code)
	}
}

func TestListTemplates(t *testing.T) {
	t.Parallel()

	list := &fakeListTemplatesUseCase{out: []app.ImportTemplateOutput{{ID: "tpl-1"}, {ID: "tpl-2"}}}
	e := newTemplateServer(nil, list, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/import-templates?entity_type=client", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, ok := decodeResponse(t, rec)["data"].([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("unexpected data payload: %s", rec.Body.String())
	}
}

func TestDeleteTemplate(t *testing.T) {
	t.Parallel()

	remove := &fakeDeleteTemplateUseCase{}
	e := newTemplateServer(nil, nil, remove)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/import-templates/tpl-1", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if remove.got != "tpl-1" {
		t.Fatalf("expected tpl-1 to be deleted, got %q", remove.got)
	}
}

func TestDeleteTemplateNotFound(t *testing.T) {
	t.Parallel()

	e := newTemplateServer(nil, nil, &fakeDeleteTemplateUseCase{err: app.ErrTemplateNotFound})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/import-templates/missing", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
