package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
)

type addItemBody struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

func TestDecodeJSONBodyReportsJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"`+uuid.NewString()+`","quantity":0}`))
	var body addItemBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	if _, ok := details["quantity"]; !ok {
		t.Fatalf("expected quantity field in details, got %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":1,"price":5}`))
	var body addItemBody
	if err := DecodeJSONBody(req, &body); err == nil {
		t.Fatal("expected unknown field to fail")
	}
}

func TestURLParamUUID(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := URLParamUUID(req, "orderId", "order")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}

	if _, err := URLParamUUID(req, "itemId", "item"); err == nil {
		t.Fatal("expected missing param to fail")
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?cursor=abc", nil)
	params, err := ParsePagination(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Limit != pagination.DefaultLimit || params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", params)
	}

	bad := httptest.NewRequest(http.MethodGet, "/?limit=1000", nil)
	if _, err := ParsePagination(bad); err == nil {
		t.Fatal("expected out of range limit to fail")
	}
}

func TestDecodeJSONBodyRequiresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var body addItemBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "request body required" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"  hello  ", 0, "hello"},
		{"bad\x00byte\x07", 0, "badbyte"},
		{"line\nbreak", 0, "line\nbreak"},
		{"héllo wörld", 5, "héllo"},
		{"日本語テキスト", 3, "日本語"},
	}
	for _, tt := range tests {
		if got := SanitizeString(tt.in, tt.max); got != tt.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
