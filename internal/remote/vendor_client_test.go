package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunbase/customer-service/internal/config"
	apperrors "github.com/sunbase/customer-service/pkg/util"
)

func newVendor(t *testing.T, handler http.HandlerFunc) *VendorClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewVendorClient(config.VendorConfig{
		DataURL:        srv.URL + "/customers",
		BearerToken:    "dGVzdDp0ZXN0",
		TimeoutSeconds: 2,
	}, nil)
}

func TestFetchCustomers(t *testing.T) {
	client := newVendor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/customers", r.URL.Path)
		assert.Equal(t, "Bearer dGVzdDp0ZXN0", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 7, "first_name": "Jane", "last_name": "Doe", "email": "jane@example.com",
			 "phone": "555-0100", "street": "Main St", "city": "Springfield", "state": "IL", "address": "42"},
			{"first_name": "John", "last_name": "Roe"}
		]`))
	})

	customers, err := client.FetchCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, int64(7), customers[0].ID)
	assert.Equal(t, "Springfield", customers[0].City)
	assert.Zero(t, customers[1].ID)
}

func TestFetchCustomersClassifiesStatus(t *testing.T) {
	cases := map[int]string{
		http.StatusUnauthorized:        apperrors.CodeRemoteUnauthorized,
		http.StatusNotFound:            apperrors.CodeRemoteNotFound,
		http.StatusInternalServerError: apperrors.CodeRemoteOther,
		http.StatusForbidden:           apperrors.CodeRemoteOther,
	}
	for status, code := range cases {
		t.Run(http.StatusText(status), func(t *testing.T) {
			client := newVendor(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			})

			_, err := client.FetchCustomers(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, code), "got %v", err)
		})
	}
}

func TestFetchCustomersPassesUpstreamStatus(t *testing.T) {
	client := newVendor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.FetchCustomers(context.Background())
	de := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusServiceUnavailable, de.Details["upstream_status"])
}

func TestFetchCustomersDecodeError(t *testing.T) {
	client := newVendor(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	})

	_, err := client.FetchCustomers(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRemoteOther))
}

func TestFetchCustomersTimeout(t *testing.T) {
	client := newVendor(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	})
	client.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.FetchCustomers(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRemoteOther))
}

func TestFetchCustomersNotConfigured(t *testing.T) {
	client := NewVendorClient(config.VendorConfig{}, nil)

	_, err := client.FetchCustomers(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
