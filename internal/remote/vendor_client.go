package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sunbase/customer-service/internal/config"
	"github.com/sunbase/customer-service/internal/domain"
	apperrors "github.com/sunbase/customer-service/pkg/util"
)

const maxResponseBytes = 32 << 20

// ErrNotConfigured is returned when no data endpoint was supplied.
var ErrNotConfigured = errors.New("vendor data url not configured")

// VendorClient fetches the customer list from the remote vendor API.
type VendorClient struct {
	httpClient  *http.Client
	dataURL     string
	bearerToken string
	logger      *zap.Logger
}

// NewVendorClient builds a client whose requests are bounded by the configured timeout.
func NewVendorClient(cfg config.VendorConfig, logger *zap.Logger) *VendorClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VendorClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
		dataURL:     cfg.DataURL,
		bearerToken: cfg.BearerToken,
		logger:      logger,
	}
}

// FetchCustomers retrieves the full remote customer list.
func (v *VendorClient) FetchCustomers(ctx context.Context) ([]domain.Customer, error) {
	if v.dataURL == "" {
		return nil, apperrors.NewRemoteError(0, ErrNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.dataURL, nil)
	if err != nil {
		return nil, apperrors.NewRemoteError(0, err)
	}
	req.Header.Set("Authorization", "Bearer "+v.bearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewRemoteError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		v.logger.Warn("vendor customer list request failed", zap.Int("status", resp.StatusCode))
		return nil, classifyStatus(resp.StatusCode)
	}

	var customers []domain.Customer
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&customers); err != nil {
		return nil, apperrors.NewRemoteError(resp.StatusCode, fmt.Errorf("decode customer list: %w", err))
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	v.logger.Info("fetched vendor customer list", zap.Int("count", len(customers)))
	return customers, nil
}

func classifyStatus(status int) error {
	cause := fmt.Errorf("vendor responded %d %s", status, http.StatusText(status))
	switch status {
	case http.StatusUnauthorized:
		return apperrors.NewRemoteUnauthorized(cause)
	case http.StatusNotFound:
		return apperrors.NewRemoteNotFound(cause)
	default:
		return apperrors.NewRemoteError(status, cause)
	}
}
