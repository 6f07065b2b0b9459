package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moya-nicolau/ecommerce-api/internal/product"
	"github.com/stretchr/testify/require"
)

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.Header.Set("Authorization", "Bearer "+f.token())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func TestListProducts(t *testing.T) {
	f := newFixture()
	f.products.listFunc = func(ctx context.Context) ([]product.Product, error) {
		return []product.Product{{ID: 1, Name: "widget", Description: "a widget", UnitPrice: 9.99}}, nil
	}

	w := f.do(t, http.MethodGet, "/api/v1/products/", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Products []product.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Products, 1)
	require.Equal(t, "widget", body.Products[0].Name)
}

func TestListProducts_Empty(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodGet, "/api/v1/products/", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"products":[]`)
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodGet, "/api/v1/products/99", "")

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateProduct(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/api/v1/products/",
		`{"product":{"name":"widget","description":"a widget","unit_price":9.99}}`)

	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Product product.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, int64(1), body.Product.ID)
}

func TestCreateProduct_Invalid(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/api/v1/products/",
		`{"product":{"name":"","description":"","unit_price":-1}}`)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, []string{
		"Name can't be blank",
		"Description can't be blank",
		"Unit price must be greater than or equal to 0",
	}, body.Errors)
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture()
	f.products.getByIDFunc = func(ctx context.Context, productID int64) (*product.Product, error) {
		return &product.Product{ID: productID, Name: "widget", Description: "a widget", UnitPrice: 9.99}, nil
	}

	var updated *product.Product
	f.products.updateFunc = func(ctx context.Context, p *product.Product) error {
		updated = p
		return nil
	}

	w := f.do(t, http.MethodPut, "/api/v1/products/1",
		`{"product":{"name":"gadget","description":"a gadget","unit_price":19.99}}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, updated)
	require.Equal(t, "gadget", updated.Name)
	require.Equal(t, 19.99, updated.UnitPrice)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPut, "/api/v1/products/99",
		`{"product":{"name":"gadget","description":"a gadget","unit_price":19.99}}`)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture()

	var discarded int64
	f.products.discardFunc = func(ctx context.Context, productID int64) error {
		discarded = productID
		return nil
	}

	w := f.do(t, http.MethodDelete, "/api/v1/products/3", "")

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, int64(3), discarded)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	f := newFixture()
	f.products.discardFunc = func(ctx context.Context, productID int64) error {
		return product.ErrNotFound
	}

	w := f.do(t, http.MethodDelete, "/api/v1/products/99", "")

	require.Equal(t, http.StatusNotFound, w.Code)
}
