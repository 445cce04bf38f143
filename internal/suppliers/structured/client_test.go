package structured

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, NewBearerAuth("secret"), 5*time.Second, 3, time.Millisecond, zap.NewNop())
}

func TestCategoriesSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":[{"id":1,"names":{"en":"Networking"},"visible":true}]}`))
	}))
	defer server.Close()

	records, err := testClient(server.URL).Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if len(records) != 1 || records[0].ID != 1 {
		t.Fatalf("records = %+v", records)
	}
}

func TestClientRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":[{"id":5,"name":"Acme"}]}`))
	}))
	defer server.Close()

	records, err := testClient(server.URL).Manufacturers(context.Background())
	if err != nil {
		t.Fatalf("Manufacturers: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
	if len(records) != 1 || records[0].Name != "Acme" {
		t.Fatalf("records = %+v", records)
	}
}

func TestClientDegradesToEmptyAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	records, err := testClient(server.URL).ProductsByCategory(context.Background(), 7)
	if err != nil {
		t.Fatalf("degraded call returned error: %v", err)
	}
	if records != nil {
		t.Fatalf("records = %+v, want nil", records)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want every retry attempt", calls.Load())
	}
}

func TestParametersByCategoryPassesFilter(t *testing.T) {
	var gotCategory string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCategory = r.URL.Query().Get("category_id")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	if _, err := testClient(server.URL).ParametersByCategory(context.Background(), 42); err != nil {
		t.Fatalf("ParametersByCategory: %v", err)
	}
	if gotCategory != "42" {
		t.Fatalf("category_id = %q, want 42", gotCategory)
	}
}
