package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, store Store) (chi.Router, *Service) {
	t.Helper()
	svc, _ := newTestService(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(r)
	return r, svc
}

func doRequest(t *testing.T, r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerPackageAvailability(t *testing.T) {
	r, _ := newTestRouter(t, beerBucketStore())

	rec := doRequest(t, r, http.MethodGet, "/packages/10/availability", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got Availability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.EqualValues(t, 10, got.PackageID)
	require.EqualValues(t, 1, got.MaxSellable)
	require.Equal(t, SourceLive, got.Source)
	require.EqualValues(t, 2, got.Bottleneck.ProductID)
}

func TestHandlerPackageAvailabilityNotFound(t *testing.T) {
	r, _ := newTestRouter(t, beerBucketStore())

	rec := doRequest(t, r, http.MethodGet, "/packages/404/availability", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerPackageAvailabilityBadID(t *testing.T) {
	r, _ := newTestRouter(t, beerBucketStore())

	rec := doRequest(t, r, http.MethodGet, "/packages/abc/availability", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerAllAvailability(t *testing.T) {
	r, _ := newTestRouter(t, bottleneckStore())

	rec := doRequest(t, r, http.MethodGet, "/availability", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Results []Availability `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Results, 3)
}

func TestHandlerBottlenecks(t *testing.T) {
	r, _ := newTestRouter(t, bottleneckStore())

	rec := doRequest(t, r, http.MethodGet, "/bottlenecks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got BottleneckReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Bottlenecks, 2)
	require.Equal(t, "1,570.00", got.Summary.TotalRevenueImpact)
}

func TestHandlerCriticalBottlenecks(t *testing.T) {
	r, _ := newTestRouter(t, bottleneckStore())

	rec := doRequest(t, r, http.MethodGet, "/bottlenecks/critical", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Critical []ProductBottleneck `json:"critical_bottlenecks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Critical, 1)
	require.EqualValues(t, 3, got.Critical[0].ProductID)
}

func TestHandlerInvalidateProduct(t *testing.T) {
	r, svc := newTestRouter(t, beerBucketStore())
	_, err := svc.CalculatePackageAvailability(context.Background(), 10, false)
	require.NoError(t, err)

	rec := doRequest(t, r, http.MethodPost, "/availability/invalidate-product", []byte(`{"product_id":2}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Invalidated []int64 `json:"invalidated_packages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, []int64{10}, got.Invalidated)

	rec = doRequest(t, r, http.MethodPost, "/availability/invalidate-product", []byte(`{}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
