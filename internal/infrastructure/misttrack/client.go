package misttrack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	statusEndpoint         = "/v1/status"
	labelsEndpoint         = "/v1/address_labels"
	overviewEndpoint       = "/v1/address_overview"
	riskScoreEndpoint      = "/v1/risk_score"
	transactionsEndpoint   = "/v1/transactions_investigation"
	actionEndpoint         = "/v1/address_action"
	traceEndpoint          = "/v1/address_trace"
	counterpartyEndpoint   = "/v1/address_counterparty"
	defaultRequestTimeout  = 10 * time.Second
	maxResponseBodyInBytes = 8 << 20
)

// RequestObserver receives one call per HTTP attempt and per retry
type RequestObserver interface {
	ObserveAPIRequest(endpoint, outcome string, duration time.Duration)
	ObserveAPIRetry(endpoint string)
}

type nopObserver struct{}

func (nopObserver) ObserveAPIRequest(string, string, time.Duration) {}
func (nopObserver) ObserveAPIRetry(string)                          {}

// Client is the MistTrack open API client
type Client struct {
	cfg        config.MistTrackConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   RequestObserver
	logger     *logger.Logger
}

// NewClient creates a new MistTrack client. A nil observer disables request metrics.
func NewClient(cfg config.MistTrackConfig, observer RequestObserver, logger *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if observer == nil {
		observer = nopObserver{}
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		observer:   observer,
		logger:     logger.WithComponent("misttrack-client"),
	}
}

// HasAPIKey reports whether an API key is configured
func (c *Client) HasAPIKey() bool {
	return c.cfg.APIKey != ""
}

// GetAPIStatus returns the provider status and the supported coins
func (c *Client) GetAPIStatus(ctx context.Context) (*entity.APIStatus, error) {
	env, err := c.get(ctx, statusEndpoint, url.Values{})
	if err != nil {
		return nil, err
	}

	status := &entity.APIStatus{SupportCoin: []string{}}
	if err := decodeData(statusEndpoint, env.Data, status); err != nil {
		return nil, err
	}
	return status, nil
}

// GetAddressLabels returns the labels of an address
func (c *Client) GetAddressLabels(ctx context.Context, coin, address string) (*entity.AddressLabels, error) {
	env, err := c.get(ctx, labelsEndpoint, addressParams(coin, address))
	if err != nil {
		return nil, err
	}

	labels := &entity.AddressLabels{LabelList: []string{}}
	if err := decodeData(labelsEndpoint, env.Data, labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// GetAddressOverview returns balance and statistics of an address
func (c *Client) GetAddressOverview(ctx context.Context, coin, address string) (*entity.AddressOverview, error) {
	env, err := c.get(ctx, overviewEndpoint, addressParams(coin, address))
	if err != nil {
		return nil, err
	}

	overview := &entity.AddressOverview{}
	if err := decodeData(overviewEndpoint, env.Data, overview); err != nil {
		return nil, err
	}
	return overview, nil
}

// GetRiskScore returns the risk score of an address or a transaction hash
func (c *Client) GetRiskScore(ctx context.Context, coin, address, txid string) (*entity.RiskScore, error) {
	if address == "" && txid == "" {
		return nil, ErrMissingTarget
	}

	params := url.Values{"coin": {coin}}
	if address != "" {
		params.Set("address", address)
	}
	if txid != "" {
		params.Set("txid", txid)
	}

	env, err := c.get(ctx, riskScoreEndpoint, params)
	if err != nil {
		return nil, err
	}

	score := &entity.RiskScore{DetailList: []string{}}
	if err := decodeData(riskScoreEndpoint, env.Data, score); err != nil {
		return nil, err
	}
	return score, nil
}

// FetchTransactions returns one page of inflow and outflow transfers of an address
func (c *Client) FetchTransactions(ctx context.Context, query entity.TransactionQuery) (*entity.TransactionPage, error) {
	params := addressParams(query.Coin, query.Address)
	if query.StartTimestamp > 0 {
		params.Set("start_timestamp", strconv.FormatInt(query.StartTimestamp, 10))
	}
	if query.EndTimestamp > 0 {
		params.Set("end_timestamp", strconv.FormatInt(query.EndTimestamp, 10))
	}
	if query.Type != "" {
		params.Set("type", string(query.Type))
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}

	env, err := c.get(ctx, transactionsEndpoint, params)
	if err != nil {
		return nil, err
	}

	page := &entity.TransactionPage{In: []entity.Transfer{}, Out: []entity.Transfer{}}
	if err := decodeData(transactionsEndpoint, env.Data, page); err != nil {
		return nil, err
	}
	return page, nil
}

// GetAddressAction returns the action breakdown of an address
func (c *Client) GetAddressAction(ctx context.Context, coin, address string) (*entity.AddressAction, error) {
	env, err := c.get(ctx, actionEndpoint, addressParams(coin, address))
	if err != nil {
		return nil, err
	}

	action := &entity.AddressAction{ReceivedTxs: []entity.ActionStat{}, SpentTxs: []entity.ActionStat{}}
	if len(env.ActionDic) > 0 && string(env.ActionDic) != "null" {
		if err := decodeData(actionEndpoint, env.ActionDic, action); err != nil {
			return nil, err
		}
		return action, nil
	}

	nested := actionData{ActionDic: action}
	if err := decodeData(actionEndpoint, env.Data, &nested); err != nil {
		return nil, err
	}
	return action, nil
}

// GetAddressTrace returns the threat intelligence profile of an address
func (c *Client) GetAddressTrace(ctx context.Context, coin, address string) (*entity.AddressTrace, error) {
	env, err := c.get(ctx, traceEndpoint, addressParams(coin, address))
	if err != nil {
		return nil, err
	}

	var trace traceData
	if err := decodeData(traceEndpoint, env.Data, &trace); err != nil {
		return nil, err
	}
	return trace.toEntity(), nil
}

// GetAddressCounterparty returns the counterparties of an address
func (c *Client) GetAddressCounterparty(ctx context.Context, coin, address string) ([]entity.Counterparty, error) {
	env, err := c.get(ctx, counterpartyEndpoint, addressParams(coin, address))
	if err != nil {
		return nil, err
	}

	counterparties := []entity.Counterparty{}
	raw := env.AddressCounterpartyList
	if len(raw) == 0 || string(raw) == "null" {
		var nested struct {
			List json.RawMessage `json:"address_counterparty_list"`
		}
		if err := decodeData(counterpartyEndpoint, env.Data, &nested); err != nil {
			return nil, err
		}
		raw = nested.List
	}
	if err := decodeData(counterpartyEndpoint, raw, &counterparties); err != nil {
		return nil, err
	}
	return counterparties, nil
}

// get performs a rate limited GET with retries and unwraps the envelope
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*envelope, error) {
	if endpoint != statusEndpoint {
		if !c.HasAPIKey() {
			return nil, ErrMissingAPIKey
		}
		params.Set("api_key", c.cfg.APIKey)
	}

	var env *envelope
	policy := retryPolicy{
		MaxRetries: c.cfg.MaxRetries,
		Delay:      c.cfg.RetryDelay,
		Backoff:    c.cfg.RetryBackoff,
		Classify:   isRetryable,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			c.observer.ObserveAPIRetry(endpoint)
			c.logger.Warn("Retrying MistTrack request",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		},
	}

	err := doWithRetry(ctx, policy, func(ctx context.Context) error {
		var attemptErr error
		env, attemptErr = c.do(ctx, endpoint, params)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}

	if !env.Success {
		msg := env.Msg
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &APIError{Endpoint: endpoint, Status: http.StatusOK, Msg: msg}
	}
	return env, nil
}

// do performs a single attempt
func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	outcome := "error"
	defer func() {
		c.observer.ObserveAPIRequest(endpoint, outcome, time.Since(start))
	}()

	reqURL := c.cfg.BaseURL + endpoint
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("misttrack %s: request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyInBytes))
	if err != nil {
		return nil, fmt.Errorf("misttrack %s: failed to read response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = strconv.Itoa(resp.StatusCode)
		return nil, &APIError{Endpoint: endpoint, Status: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("misttrack %s: failed to decode response: %w", endpoint, err)
	}

	outcome = "ok"
	c.logger.Debug("MistTrack request completed",
		zap.String("endpoint", endpoint),
		zap.Bool("success", env.Success),
		zap.Duration("duration", time.Since(start)))

	return &env, nil
}

func addressParams(coin, address string) url.Values {
	return url.Values{"coin": {coin}, "address": {address}}
}

func decodeData(endpoint string, data json.RawMessage, out any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("misttrack %s: failed to decode data: %w", endpoint, err)
	}
	return nil
}
