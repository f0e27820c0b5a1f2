package service

import (
	"context"
	"encoding/json"
	"testing"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/infrastructure/blockchain"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIntelligenceService(client *stubIntelligence) *IntelligenceApplicationService {
	return NewIntelligenceApplicationService(client, blockchain.NewAddressDetector(), logger.NewNopLogger())
}

func TestAddressLabels(t *testing.T) {
	client := &stubIntelligence{labels: &entity.AddressLabels{LabelList: []string{"Binance", "hot wallet"}, LabelType: "exchange"}}
	svc := newTestIntelligenceService(client)

	text, err := svc.AddressLabels(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "Address: 0xabc\nLabel list: Binance, hot wallet\nAddress label type: exchange", text)

	client.labels = &entity.AddressLabels{}
	text, err = svc.AddressLabels(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)
	assert.Contains(t, text, "Label list: None")
}

func TestAddressLabels_Failure(t *testing.T) {
	svc := newTestIntelligenceService(&stubIntelligence{failing: true})

	_, err := svc.AddressLabels(context.Background(), "ETH", "0xabc")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, "Failed to get address labels: upstream unavailable", err.Error())
}

func TestRiskScore(t *testing.T) {
	client := &stubIntelligence{risk: &entity.RiskScore{Score: 87, Level: "high", DetailList: []string{"Interact With Malicious Address"}}}
	svc := newTestIntelligenceService(client)

	text, err := svc.RiskScore(context.Background(), "ETH", "0xabc", "")
	require.NoError(t, err)
	assert.Contains(t, text, "Address: 0xabc\nCoin: ETH\nRisk Score: 87\nRisk Level: High Risk")
	assert.Contains(t, text, "Risk Details: Interact With Malicious Address")
}

func TestRiskScore_TargetRules(t *testing.T) {
	client := &stubIntelligence{}
	svc := newTestIntelligenceService(client)

	_, err := svc.RiskScore(context.Background(), "ETH", "", "")
	assert.ErrorIs(t, err, ErrMissingRiskTarget)

	_, err = svc.RiskScore(context.Background(), "ETH", "0xabc", "0xtx")
	assert.ErrorIs(t, err, ErrTxidNotSupported)
	assert.Equal(t, "Transaction hash analysis is not supported yet", err.Error())
	assert.Zero(t, client.riskCalls)
}

func TestAddressAction(t *testing.T) {
	client := &stubIntelligence{action: &entity.AddressAction{
		ReceivedTxs: []entity.ActionStat{{Action: "Exchange", Count: 4, Proportion: 66.67}},
	}}
	svc := newTestIntelligenceService(client)

	text, err := svc.AddressAction(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "Address: 0xabc Coin: ETH\n\n"+
		"Received transaction action analysis:\n    Exchange: 4 transactions (66.67%)\n\n"+
		"Spent transaction action analysis:\n    No data", text)
}

func TestAddressTrace(t *testing.T) {
	client := &stubIntelligence{trace: &entity.AddressTrace{
		UsePlatform:  entity.PlatformUsage{Exchange: entity.NamedList{Count: 2, Items: []string{"Binance", "OKX"}}},
		RelationInfo: entity.RelationInfo{ENS: entity.NamedList{Count: 1, Items: []string{"vitalik.eth"}}},
	}}
	svc := newTestIntelligenceService(client)

	text, err := svc.AddressTrace(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)
	assert.Contains(t, text, "Used platforms:\n- Exchanges: 2\n  \n  Binance\n  OKX\n")
	assert.Contains(t, text, "- Mixers: 0\n  None\n")
	assert.Contains(t, text, "Malicious events:\n- Phishing: 0\n  None\n")
	assert.Contains(t, text, "- ENS domains: 1\n  \n  vitalik.eth\n")
}

func TestAddressCounterparty(t *testing.T) {
	client := &stubIntelligence{counterparties: []entity.Counterparty{
		{Name: "Binance", Amount: 12345.6789, Percent: 80.5},
		{Name: "dust", Amount: 0.00012345, Percent: 0.1},
	}}
	svc := newTestIntelligenceService(client)

	text, err := svc.AddressCounterparty(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)
	assert.Contains(t, text, "    Binance: 12,345.679 (80.5%)")
	assert.Contains(t, text, "    dust: 0.000123 (0.1%)")
	assert.Contains(t, text, "Total number of counterparties: 2")
}

func TestCheckMaliciousFunds(t *testing.T) {
	client := &stubIntelligence{trace: &entity.AddressTrace{}}
	svc := newTestIntelligenceService(client)

	text, err := svc.CheckMaliciousFunds(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "Malicious funds analysis for address 0xabc (ETH):\n\n✅ No malicious funds risk detected", text)

	client.trace = &entity.AddressTrace{MaliciousEvent: entity.MaliciousEvents{
		Phishing: entity.NamedList{Count: 2},
		Stealing: entity.NamedList{Count: 1},
	}}
	text, err = svc.CheckMaliciousFunds(context.Background(), "ETH", "0xabc")
	require.NoError(t, err)
	assert.Contains(t, text, "⚠️ Warning: This address has malicious funds risk!")
	assert.Contains(t, text, "- Phishing events: 2\n- Ransomware events: 0\n- Theft events: 1")
}

func TestDetectAddressChain(t *testing.T) {
	svc := newTestIntelligenceService(&stubIntelligence{})

	detection, text := svc.DetectAddressChain("0xde0B295669a9FD93d5F28D9Ec85E40f4cb697BAe")
	require.True(t, detection.Success)

	var decoded entity.ChainDetection
	require.NoError(t, json.Unmarshal([]byte(text), &decoded))
	assert.Equal(t, *detection, decoded)
	assert.Contains(t, text, "\n  \"success\": true")
}

func TestSupportedCoins(t *testing.T) {
	coins, err := newTestIntelligenceService(&stubIntelligence{}).SupportedCoins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH", "BTC"}, coins)

	_, err = newTestIntelligenceService(&stubIntelligence{failing: true}).SupportedCoins(context.Background())
	assert.Error(t, err)
}
