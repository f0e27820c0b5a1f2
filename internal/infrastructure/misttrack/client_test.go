package misttrack

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/service"
	"misttrack-mcp-server/internal/infrastructure/config"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service.IntelligenceClient = (*Client)(nil)

type countingObserver struct {
	requests atomic.Int32
	retries  atomic.Int32
}

func (o *countingObserver) ObserveAPIRequest(string, string, time.Duration) { o.requests.Add(1) }
func (o *countingObserver) ObserveAPIRetry(string)                          { o.retries.Add(1) }

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string, observer RequestObserver) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.MistTrackConfig{
		APIKey:       apiKey,
		BaseURL:      server.URL + "/",
		RateLimit:    0,
		Timeout:      2 * time.Second,
		MaxRetries:   3,
		RetryDelay:   time.Millisecond,
		RetryBackoff: 2,
	}, observer, logger.NewNopLogger())
}

func TestFetchTransactionsSendsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transactions_investigation", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ETH", q.Get("coin"))
		assert.Equal(t, "0xabc", q.Get("address"))
		assert.Equal(t, "key", q.Get("api_key"))
		assert.Equal(t, "100", q.Get("start_timestamp"))
		assert.Equal(t, "out", q.Get("type"))
		assert.False(t, q.Has("end_timestamp"))
		assert.False(t, q.Has("page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"in":[{"address":"0xin","amount":1.5,"label":"Tornado.Cash","tx_hash_list":["0x1","0x2"]}],
			"out":[{"address":"0xout","amount":2,"label":"","tx_hash_list":[]}]}}`))
	}, "key", nil)

	page, err := client.FetchTransactions(context.Background(), entity.TransactionQuery{
		Coin:           "ETH",
		Address:        "0xabc",
		StartTimestamp: 100,
		Type:           entity.TransactionTypeOut,
	})
	require.NoError(t, err)

	assert.Equal(t, []entity.Transfer{{Address: "0xin", Amount: 1.5, Label: "Tornado.Cash", TxHashes: []string{"0x1", "0x2"}}}, page.In)
	require.Len(t, page.Out, 1)
	assert.Equal(t, "0xout", page.Out[0].Address)
}

func TestMissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.False(t, r.URL.Query().Has("api_key"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"support_coin":["ETH","BTC"]}}`))
	}, "", nil)

	_, err := client.GetAddressLabels(context.Background(), "ETH", "0xabc")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, int32(0), calls.Load())

	status, err := client.GetAPIStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH", "BTC"}, status.SupportCoin)
}

func TestRetriesOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	observer := &countingObserver{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"label_list":["Binance"],"label_type":"exchange"}}`))
	}, "key", observer)

	labels, err := client.GetAddressLabels(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)

	assert.Equal(t, []string{"Binance"}, labels.LabelList)
	assert.Equal(t, "exchange", labels.LabelType)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(2), observer.retries.Load())
	assert.Equal(t, int32(3), observer.requests.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, "key", nil)

	_, err := client.GetAddressOverview(context.Background(), "ETH", "0xabc")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, int32(4), calls.Load())
}

func TestNoRetryOnClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}, "key", nil)

	_, err := client.GetAddressTrace(context.Background(), "ETH", "0xabc")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnsuccessfulEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"msg":"InvalidApiKey"}`))
	}, "key", nil)

	_, err := client.FetchTransactions(context.Background(), entity.TransactionQuery{Coin: "ETH", Address: "0xabc"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "InvalidApiKey", apiErr.Msg)
	assert.False(t, apiErr.Retryable())
}

func TestGetRiskScore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0xabc", r.URL.Query().Get("address"))
		assert.False(t, r.URL.Query().Has("txid"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"score":87,"level":"high","detail_list":["Phishing"]}}`))
	}, "key", nil)

	_, err := client.GetRiskScore(context.Background(), "ETH", "", "")
	assert.ErrorIs(t, err, ErrMissingTarget)

	score, err := client.GetRiskScore(context.Background(), "ETH", "0xabc", "")
	require.NoError(t, err)
	assert.Equal(t, 87.0, score.Score)
	assert.Equal(t, "High Risk", score.RiskLevelName())
	assert.Equal(t, []string{"Phishing"}, score.DetailList)
}

func TestGetAddressTrace(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"use_platform":{"exchange":{"count":1,"exchange_list":["Binance"]},"mixer":{"count":0,"mixer_list":[]}},
			"malicious_event":{"phishing":{"count":2,"phishing_list":["a","b"]},"stealing":{"count":1,"stealing_list":["c"]}},
			"relation_info":{"ens":{"count":1,"ens_list":["vitalik.eth"]}}}}`))
	}, "key", nil)

	trace, err := client.GetAddressTrace(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)

	assert.Equal(t, entity.NamedList{Count: 1, Items: []string{"Binance"}}, trace.UsePlatform.Exchange)
	assert.Equal(t, 3, trace.MaliciousEvent.Total())
	assert.Equal(t, []string{"vitalik.eth"}, trace.RelationInfo.ENS.Items)
}

func TestGetAddressActionAndCounterparty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/address_action":
			_, _ = w.Write([]byte(`{"success":true,"action_dic":{
				"received_txs":[{"action":"Exchange","count":3,"proportion":75}],
				"spent_txs":[]}}`))
		case "/v1/address_counterparty":
			_, _ = w.Write([]byte(`{"success":true,"address_counterparty_list":[
				{"name":"Binance","amount":12.5,"percent":80.1}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, "key", nil)

	action, err := client.GetAddressAction(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, []entity.ActionStat{{Action: "Exchange", Count: 3, Proportion: 75}}, action.ReceivedTxs)
	assert.Empty(t, action.SpentTxs)

	counterparties, err := client.GetAddressCounterparty(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, []entity.Counterparty{{Name: "Binance", Amount: 12.5, Percent: 80.1}}, counterparties)
}

func TestContextCancelStopsRetries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, "key", nil)
	client.cfg.RetryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetAddressLabels(ctx, "ETH", "0xabc")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
