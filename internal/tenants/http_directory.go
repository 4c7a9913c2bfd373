// Package tenants looks tenant records up in the external tenant directory.
package tenants

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	infraerrors "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/errors"
	infrahttp "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/http"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// HTTPDirectory reads tenants from GET <base>/api/v1/tenants/<id>.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
	retry   retry.Config
}

// NewHTTPDirectory creates a directory client. timeout bounds each attempt.
func NewHTTPDirectory(baseURL string, timeout time.Duration) *HTTPDirectory {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 2
	cfg.IsRetryable = isRetryable

	return &HTTPDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: timeout}),
		retry:   cfg,
	}
}

type tenantResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	ThemeID string    `json:"theme_id"`
}

// GetTenant returns domain.ErrTenantNotFound on 404. Network errors and 5xx
// answers are retried once.
func (d *HTTPDirectory) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	endpoint := d.baseURL + "/api/v1/tenants/" + url.PathEscape(id.String())

	var tenant *domain.Tenant
	err := retry.Retry(ctx, d.retry, func() error {
		var getErr error
		tenant, getErr = d.get(ctx, endpoint)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (d *HTTPDirectory) get(ctx context.Context, endpoint string) (*domain.Tenant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build tenant request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tenant request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrTenantNotFound
	}
	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return nil, fmt.Errorf("tenant directory: %w", httpErr)
	}

	var body tenantResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil {
		return nil, fmt.Errorf("decode tenant: %w", decodeErr)
	}
	return &domain.Tenant{ID: body.ID, Name: body.Name, ThemeID: body.ThemeID}, nil
}

func isRetryable(err error) bool {
	if status, ok := infraerrors.StatusCode(err); ok {
		return status >= http.StatusInternalServerError
	}
	return retry.DefaultIsRetryable(err)
}
