package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tablekit/internal/apperr"
	"tablekit/internal/auth"
	"tablekit/internal/query"
	"tablekit/internal/schema"
	"tablekit/internal/store"
	"tablekit/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// fakeCatalog реализует только то, что нужно маршрутам в этих тестах.
type fakeCatalog struct {
	Catalog
	tables map[string]schema.TableDefinition
}

func (f *fakeCatalog) LoadTable(_ context.Context, name string) (schema.TableDefinition, error) {
	t, ok := f.tables[schema.NormalizeName(name)]
	if !ok {
		return t, apperr.NotFound("Table %q not found", name)
	}
	return t, nil
}

func (f *fakeCatalog) ListTables(context.Context, store.TableListParams) ([]schema.TableDefinition, error) {
	out := make([]schema.TableDefinition, 0, len(f.tables))
	for _, t := range f.tables {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeCatalog) Ping(context.Context) error { return nil }

// fakeRows отдаёт одну фиксированную строку и запоминает последнее тело.
type fakeRows struct {
	last map[string]any
	res  query.Result
}

var fixedRow = json.RawMessage(`{"id":1,"first_name":"Bob"}`)

func (r *fakeRows) List(_ context.Context, res query.Result) ([]json.RawMessage, error) {
	r.res = res
	return []json.RawMessage{fixedRow}, nil
}
func (r *fakeRows) Get(context.Context, string) (json.RawMessage, error) { return fixedRow, nil }
func (r *fakeRows) Insert(_ context.Context, body map[string]any) (json.RawMessage, error) {
	r.last = body
	return fixedRow, nil
}
func (r *fakeRows) Replace(_ context.Context, _ string, body map[string]any) (json.RawMessage, error) {
	r.last = body
	return fixedRow, nil
}
func (r *fakeRows) Update(_ context.Context, _ string, body map[string]any) (json.RawMessage, error) {
	r.last = body
	return fixedRow, nil
}
func (r *fakeRows) Delete(context.Context, string) (json.RawMessage, error) { return fixedRow, nil }

type harness struct {
	router http.Handler
	secret string
	rows   *fakeRows
}

func peopleTable(mutate func(*schema.TableDefinition)) schema.TableDefinition {
	t := schema.TableDefinition{
		ID: 1, Name: "people", IsActive: true, Auth: true,
		Fields: []schema.FieldDefinition{
			{Name: "id", FieldType: schema.Integer, IsPrimaryKey: true, IsUnique: true, IsAutoIncrement: true},
			{Name: "first_name", FieldType: schema.Varchar},
		},
		Permissions: schema.DefaultPermissions(1),
	}
	if mutate != nil {
		mutate(&t)
	}
	return t
}

func newHarness(t *testing.T, tables ...schema.TableDefinition) *harness {
	t.Helper()
	const secret = "router-secret"
	v, err := auth.NewVerifier(secret)
	require.NoError(t, err)
	cat := &fakeCatalog{tables: map[string]schema.TableDefinition{}}
	for _, tb := range tables {
		cat.tables[tb.Name] = tb
	}
	rows := &fakeRows{}
	r := NewRouter(Options{
		Catalog: cat,
		Rows:    func(schema.TableDefinition) (Rows, error) { return rows, nil },
		Auth:    auth.NewEvaluator(v),
	})
	return &harness{router: r, secret: secret, rows: rows}
}

func (h *harness) token(t *testing.T, api, admin bool) string {
	return testutil.Bearer(t, h.secret, api, admin)
}

func (h *harness) do(method, path, authz, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) apperr.Envelope {
	t.Helper()
	var env apperr.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestCatalogRequiresAdminToken(t *testing.T) {
	h := newHarness(t, peopleTable(nil))

	w := h.do(http.MethodGet, "/tables", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Missing bearer token", envelope(t, w).ErrorMsg)

	w = h.do(http.MethodGet, "/tables", h.token(t, true, false), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/tables", h.token(t, false, true), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCustomRowsAreCamelCased(t *testing.T) {
	h := newHarness(t, peopleTable(nil))

	w := h.do(http.MethodGet, "/custom/people?firstName=Bob&limit=5", h.token(t, true, false), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[{"id":1,"firstName":"Bob"}]`, w.Body.String())
	require.Len(t, h.rows.res.Predicates, 1)
	assert.Equal(t, "first_name", h.rows.res.Predicates[0].Key)
	assert.Equal(t, 5, h.rows.res.Limit)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCustomUnknownFilterColumn(t *testing.T) {
	h := newHarness(t, peopleTable(nil))
	w := h.do(http.MethodGet, "/custom/people?foo=1", h.token(t, true, false), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := envelope(t, w)
	assert.Equal(t, `Column "foo" not found`, env.ErrorMsg)
}

func TestCustomBodyKeysBecomeColumns(t *testing.T) {
	h := newHarness(t, peopleTable(nil))
	w := h.do(http.MethodPost, "/custom/people", h.token(t, true, false), `{"firstName":"Ann","id":7}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Ann", h.rows.last["first_name"])
	assert.Equal(t, json.Number("7"), h.rows.last["id"])

	w = h.do(http.MethodPost, "/custom/people", h.token(t, true, false), `{"firstName":"a","first_name":"b"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/custom/people", h.token(t, true, false), `{"firstName":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON", envelope(t, w).ErrorMsg)
}

func TestDeleteDeniedByPermissionRow(t *testing.T) {
	tb := peopleTable(func(t *schema.TableDefinition) {
		for i := range t.Permissions {
			if t.Permissions[i].Permission == schema.PermDelete {
				t.Permissions[i].Allow = false
			}
		}
	})
	h := newHarness(t, tb)

	w := h.do(http.MethodDelete, "/custom/people/1", h.token(t, true, false), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, envelope(t, w).ErrorMsg, "Delete")

	w = h.do(http.MethodGet, "/custom/people/1", h.token(t, true, false), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublicTableNeedsNoToken(t *testing.T) {
	h := newHarness(t, peopleTable(func(t *schema.TableDefinition) { t.Auth = false }))

	w := h.do(http.MethodGet, "/custom/people/1", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"firstName":"Bob"}`, w.Body.String())
}

func TestMissingPermissionRowIs500(t *testing.T) {
	h := newHarness(t, peopleTable(func(t *schema.TableDefinition) { t.Permissions = t.Permissions[:1] }))
	w := h.do(http.MethodPatch, "/custom/people/1", h.token(t, true, false), `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestInactiveTableIsNotFound(t *testing.T) {
	h := newHarness(t, peopleTable(func(t *schema.TableDefinition) { t.IsDeleted = true }))
	w := h.do(http.MethodGet, "/custom/people", h.token(t, true, false), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Nil(t, envelope(t, w).Values)

	w = h.do(http.MethodPost, "/meta/types", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.NotEmpty(t, envelope(t, w).ErrorMsg)
}

func TestMetaTypes(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/meta/types", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out []metaFieldType
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out, len(schema.FieldTypes))
	assert.Equal(t, metaFieldType{Type: "Float", Physical: "real"}, out[2])
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
