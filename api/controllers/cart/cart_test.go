package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/api/middleware"
	cartsvc "github.com/angelmondragon/orderflow-backend/internal/cart"
	product "github.com/angelmondragon/orderflow-backend/internal/products"
	"github.com/angelmondragon/orderflow-backend/pkg/db"
	"github.com/angelmondragon/orderflow-backend/pkg/db/dbtest"
)

type fixture struct {
	conn   *gorm.DB
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := cartsvc.NewService(cartsvc.NewRepository(conn), db.NewFromConn(conn), product.NewRepository(conn))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.Identity(nil))
	r.Get("/cart", CartFetch(svc, nil))
	r.Delete("/cart", CartClear(svc, nil))
	r.Post("/cart/items", CartAddItem(svc, nil))
	r.Patch("/cart/items/{itemId}", CartUpdateItem(svc, nil))
	r.Delete("/cart/items/{itemId}", CartRemoveItem(svc, nil))
	return &fixture{conn: conn, router: r}
}

func (f *fixture) do(t *testing.T, userID uuid.UUID, method, path, body string) (*httptest.ResponseRecorder, cartsvc.CartDTO) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(middleware.UserIDHeader, userID.String())
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)

	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	if resp.Code < http.StatusBadRequest {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	}
	return resp, envelope.Data
}

func TestCartFlow(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	widget := dbtest.SeedProduct(t, f.conn, "WIDGET", 250, 10)

	resp, cart := f.do(t, userID, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, cart.Items)

	addBody := `{"product_id":"` + widget.ID.String() + `","quantity":2}`
	resp, cart = f.do(t, userID, http.MethodPost, "/cart/items", addBody)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resp, cart = f.do(t, userID, http.MethodPost, "/cart/items", addBody)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, int64(1000), cart.SubtotalCents)

	itemPath := "/cart/items/" + cart.Items[0].ID.String()
	resp, cart = f.do(t, userID, http.MethodPatch, itemPath, `{"quantity":1}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	resp, cart = f.do(t, userID, http.MethodPatch, itemPath, `{"quantity":0}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, cart.Items)

	assert.Equal(t, 10, dbtest.Available(t, f.conn, widget.ID), "cart edits must not touch stock")
}

func TestCartItemsAreScopedToUser(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	widget := dbtest.SeedProduct(t, f.conn, "WIDGET", 250, 10)

	resp, cart := f.do(t, owner, http.MethodPost, "/cart/items", `{"product_id":"`+widget.ID.String()+`","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp, _ = f.do(t, uuid.New(), http.MethodDelete, "/cart/items/"+cart.Items[0].ID.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp, cart = f.do(t, owner, http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, cart.Items)
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	resp, _ := f.do(t, userID, http.MethodPost, "/cart/items", `{"product_id":"`+uuid.NewString()+`","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp, _ = f.do(t, userID, http.MethodPost, "/cart/items", `{"product_id":"`+uuid.NewString()+`","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp, _ = f.do(t, userID, http.MethodPatch, "/cart/items/"+uuid.NewString(), `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
