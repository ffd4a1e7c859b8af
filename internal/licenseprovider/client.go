// Package licenseprovider реализует клиент внешнего провайдера лицензий:
// получение каталога тарифов, проверку и активацию лицензионного ключа.
// Любой ответ провайдера считается недоверенным входом. Клиент не делает
// повторных попыток: активация у провайдера не идемпотентна.
package licenseprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable возвращается при сетевой ошибке, неожиданном статусе
// или некорректном теле ответа провайдера.
var ErrUnavailable = errors.New("license provider unavailable")

const (
	catalogPath  = "/v1/variants"
	validatePath = "/v1/licenses/validate"
	activatePath = "/v1/licenses/activate"

	maxCatalogPages = 20
	maxBodySize     = 1 << 20
)

// Client - HTTP-клиент провайдера лицензий.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент провайдера. Таймаут задаётся только на уровне транспорта.
func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// FetchCatalog возвращает все варианты тарифов, проходя по страницам каталога.
func (c *Client) FetchCatalog(ctx context.Context) ([]PlanRecord, error) {
	const op = "licenseprovider.FetchCatalog"

	var plans []PlanRecord
	next := c.apiURL + catalogPath
	for page := 0; next != "" && page < maxCatalogPages; page++ {
		req, err := c.newRequest(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		req.Header.Set("Accept", "application/vnd.api+json")
		req.Header.Set("Content-Type", "application/vnd.api+json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		var body variantsResponse
		status, err := c.do(req, &body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("%s: %w: unexpected status %d", op, ErrUnavailable, status)
		}
		for _, v := range body.Data {
			if v.ID == "" {
				return nil, fmt.Errorf("%s: %w: variant without id", op, ErrUnavailable)
			}
			plans = append(plans, PlanRecord{
				ID:    v.ID,
				Name:  v.Attributes.Name,
				Price: v.Attributes.Price,
			})
		}
		if next, err = c.nextPage(body.Links.Next); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
		}
	}
	if next != "" {
		return nil, fmt.Errorf("%s: %w: catalog exceeds %d pages", op, ErrUnavailable, maxCatalogPages)
	}
	return plans, nil
}

// nextPage разрешает ссылку на следующую страницу относительно apiURL.
// Ссылка на другой хост или схему отклоняется: запрос несёт ключ API.
func (c *Client) nextPage(link string) (string, error) {
	if link == "" {
		return "", nil
	}
	base, err := url.Parse(c.apiURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid next link: %w", err)
	}
	next := base.ResolveReference(ref)
	if next.Scheme != base.Scheme || next.Host != base.Host {
		return "", fmt.Errorf("next link points to foreign origin %s://%s", next.Scheme, next.Host)
	}
	return next.String(), nil
}

// ValidateKey проверяет лицензионный ключ у провайдера.
func (c *Client) ValidateKey(ctx context.Context, key string) (*ValidateResult, error) {
	const op = "licenseprovider.ValidateKey"

	req, err := c.newRequest(ctx, http.MethodPost, c.apiURL+validatePath, licenseKeyRequest{LicenseKey: key})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var body validateResponse
	status, err := c.do(req, &body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	if !businessStatus(status) {
		return nil, fmt.Errorf("%s: %w: unexpected status %d", op, ErrUnavailable, status)
	}

	res := &ValidateResult{Valid: body.Valid}
	if body.Error != nil {
		res.Error = *body.Error
	}
	if !body.Valid {
		return res, nil
	}
	if body.LicenseKey == nil || body.Meta == nil || body.Meta.VariantID == "" {
		return nil, fmt.Errorf("%s: %w: incomplete validation payload", op, ErrUnavailable)
	}
	res.PlanID = string(body.Meta.VariantID)
	res.CreatedAt = body.LicenseKey.CreatedAt
	res.KeyEcho = body.LicenseKey.Key
	return res, nil
}

// ActivateKey активирует лицензионный ключ на экземпляре instanceName.
func (c *Client) ActivateKey(ctx context.Context, key, instanceName string) (*ActivateResult, error) {
	const op = "licenseprovider.ActivateKey"

	req, err := c.newRequest(ctx, http.MethodPost, c.apiURL+activatePath, licenseKeyRequest{
		LicenseKey:   key,
		InstanceName: instanceName,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var body activateResponse
	status, err := c.do(req, &body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	if !businessStatus(status) {
		return nil, fmt.Errorf("%s: %w: unexpected status %d", op, ErrUnavailable, status)
	}

	res := &ActivateResult{Activated: body.Activated}
	if body.Error != nil {
		res.Error = *body.Error
	}
	if !body.Activated {
		return res, nil
	}
	if body.Instance == nil {
		return nil, fmt.Errorf("%s: %w: activation without instance", op, ErrUnavailable)
	}
	res.ActivatedAt = body.Instance.CreatedAt
	res.InstanceID = body.Instance.ID
	return res, nil
}

// do выполняет запрос и декодирует тело ответа в out, возвращая HTTP-статус.
func (c *Client) do(req *http.Request, out any) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode body: %w", err)
	}
	return resp.StatusCode, nil
}

// businessStatus сообщает, что статус несёт бизнес-ответ провайдера:
// 2xx, 400, 404 или 422 с телом вида {valid|activated, error}.
func businessStatus(status int) bool {
	switch {
	case status >= 200 && status < 300:
		return true
	case status == http.StatusBadRequest, status == http.StatusNotFound, status == http.StatusUnprocessableEntity:
		return true
	}
	return false
}
