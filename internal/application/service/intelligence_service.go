package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"misttrack-mcp-server/internal/domain/entity"
	"misttrack-mcp-server/internal/domain/service"
	"misttrack-mcp-server/internal/infrastructure/blockchain"
	"misttrack-mcp-server/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ErrTxidNotSupported is returned for risk scores requested by transaction hash
var ErrTxidNotSupported = errors.New("Transaction hash analysis is not supported yet")

// ErrMissingRiskTarget is returned when neither address nor txid is given
var ErrMissingRiskTarget = errors.New("Either address or txid parameter must be provided")

// IntelligenceApplicationService renders the intelligence endpoints as text
type IntelligenceApplicationService struct {
	client   service.IntelligenceClient
	detector *blockchain.AddressDetector
	logger   *logger.Logger
}

// NewIntelligenceApplicationService creates a new intelligence application service
func NewIntelligenceApplicationService(
	client service.IntelligenceClient,
	detector *blockchain.AddressDetector,
	logger *logger.Logger,
) *IntelligenceApplicationService {
	return &IntelligenceApplicationService{
		client:   client,
		detector: detector,
		logger:   logger.WithComponent("intelligence-service"),
	}
}

// SupportedCoins returns the coins supported by the provider
func (s *IntelligenceApplicationService) SupportedCoins(ctx context.Context) ([]string, error) {
	status, err := s.client.GetAPIStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get supported coins: %w", err)
	}
	return status.SupportCoin, nil
}

// AddressLabels describes the labels of an address
func (s *IntelligenceApplicationService) AddressLabels(ctx context.Context, coin, address string) (string, error) {
	labels, err := s.client.GetAddressLabels(ctx, coin, address)
	if err != nil {
		return "", s.failure("address labels", address, err)
	}

	formatted := "None"
	if len(labels.LabelList) > 0 {
		formatted = strings.Join(labels.LabelList, ", ")
	}

	return fmt.Sprintf("Address: %s\nLabel list: %s\nAddress label type: %s",
		address, formatted, labels.LabelType), nil
}

// AddressOverview describes balance and activity of an address
func (s *IntelligenceApplicationService) AddressOverview(ctx context.Context, coin, address string) (string, error) {
	overview, err := s.client.GetAddressOverview(ctx, coin, address)
	if err != nil {
		return "", s.failure("address overview", address, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Address: %s Coin: %s\n\n", address, coin)
	fmt.Fprintf(&b, "Balance: %s %s\n", formatFloat(overview.Balance), coin)
	fmt.Fprintf(&b, "Total transactions: %d\n", overview.TxsCount)
	fmt.Fprintf(&b, "Total received: %s %s (%d transactions)\n", formatFloat(overview.TotalReceived), coin, overview.ReceivedTxsCount)
	fmt.Fprintf(&b, "Total spent: %s %s (%d transactions)\n", formatFloat(overview.TotalSpent), coin, overview.SpentTxsCount)
	fmt.Fprintf(&b, "First seen: %s\n", formatUnix(overview.FirstSeen))
	fmt.Fprintf(&b, "Last seen: %s", formatUnix(overview.LastSeen))
	return b.String(), nil
}

// RiskScore describes the risk of an address. Transaction hashes are not supported.
func (s *IntelligenceApplicationService) RiskScore(ctx context.Context, coin, address, txid string) (string, error) {
	if address == "" && txid == "" {
		return "", ErrMissingRiskTarget
	}
	if txid != "" {
		return "", ErrTxidNotSupported
	}

	score, err := s.client.GetRiskScore(ctx, coin, address, "")
	if err != nil {
		return "", s.failure("risk score", address, err)
	}

	text := fmt.Sprintf("Address: %s\nCoin: %s\nRisk Score: %s\nRisk Level: %s",
		address, coin, formatFloat(score.Score), score.RiskLevelName())
	if len(score.DetailList) > 0 {
		text += "\nRisk Details: " + strings.Join(score.DetailList, ", ")
	}
	return text, nil
}

// AddressAction describes the action breakdown of an address
func (s *IntelligenceApplicationService) AddressAction(ctx context.Context, coin, address string) (string, error) {
	action, err := s.client.GetAddressAction(ctx, coin, address)
	if err != nil {
		return "", s.failure("address action analysis", address, err)
	}

	formatActions := func(actions []entity.ActionStat) string {
		if len(actions) == 0 {
			return "    No data"
		}
		lines := make([]string, 0, len(actions))
		for _, a := range actions {
			lines = append(lines, fmt.Sprintf("    %s: %d transactions (%s%%)", a.Action, a.Count, formatFloat(a.Proportion)))
		}
		return strings.Join(lines, "\n")
	}

	return fmt.Sprintf("Address: %s Coin: %s\n\nReceived transaction action analysis:\n%s\n\nSpent transaction action analysis:\n%s",
		address, coin, formatActions(action.ReceivedTxs), formatActions(action.SpentTxs)), nil
}

// AddressTrace describes platforms, incidents and identities linked to an address
func (s *IntelligenceApplicationService) AddressTrace(ctx context.Context, coin, address string) (string, error) {
	trace, err := s.client.GetAddressTrace(ctx, coin, address)
	if err != nil {
		return "", s.failure("address trace", address, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Address: %s Coin: %s\n", address, coin)

	section := func(title string, entries ...namedEntry) {
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s: %d\n  %s\n", e.name, e.list.Count, formatNames(e.list.Items))
		}
	}

	section("Used platforms",
		namedEntry{"Exchanges", trace.UsePlatform.Exchange},
		namedEntry{"DEX", trace.UsePlatform.DEX},
		namedEntry{"Mixers", trace.UsePlatform.Mixer},
		namedEntry{"NFT platforms", trace.UsePlatform.NFT})
	section("Malicious events",
		namedEntry{"Phishing", trace.MaliciousEvent.Phishing},
		namedEntry{"Ransomware", trace.MaliciousEvent.Ransom},
		namedEntry{"Theft", trace.MaliciousEvent.Stealing})
	section("Related information",
		namedEntry{"Wallets", trace.RelationInfo.Wallet},
		namedEntry{"ENS domains", trace.RelationInfo.ENS},
		namedEntry{"Twitter accounts", trace.RelationInfo.Twitter})

	return strings.TrimRight(b.String(), "\n"), nil
}

// AddressCounterparty describes the counterparties of an address
func (s *IntelligenceApplicationService) AddressCounterparty(ctx context.Context, coin, address string) (string, error) {
	counterparties, err := s.client.GetAddressCounterparty(ctx, coin, address)
	if err != nil {
		return "", s.failure("address counterparty", address, err)
	}

	lines := []string{"    No data"}
	if len(counterparties) > 0 {
		lines = lines[:0]
		for _, cp := range counterparties {
			lines = append(lines, fmt.Sprintf("    %s: %s (%s%%)", cp.Name, formatCounterpartyAmount(cp.Amount), formatFloat(cp.Percent)))
		}
	}

	return fmt.Sprintf("Address: %s Coin: %s\n\nCounterparty analysis:\n%s\n\nTotal number of counterparties: %d",
		address, coin, strings.Join(lines, "\n"), len(counterparties)), nil
}

// CheckMaliciousFunds sums the incidents linked to an address
func (s *IntelligenceApplicationService) CheckMaliciousFunds(ctx context.Context, coin, address string) (string, error) {
	trace, err := s.client.GetAddressTrace(ctx, coin, address)
	if err != nil {
		return "", s.failure("address threat intelligence", address, err)
	}

	events := trace.MaliciousEvent
	text := fmt.Sprintf("Malicious funds analysis for address %s (%s):\n\n", address, coin)
	if events.Total() == 0 {
		return text + "✅ No malicious funds risk detected", nil
	}

	text += "⚠️ Warning: This address has malicious funds risk!\n\n"
	text += "Malicious events statistics:\n"
	text += fmt.Sprintf("- Phishing events: %d\n", events.Phishing.Count)
	text += fmt.Sprintf("- Ransomware events: %d\n", events.Ransom.Count)
	text += fmt.Sprintf("- Theft events: %d", events.Stealing.Count)
	return text, nil
}

// DetectAddressChain guesses the chain of an address and returns the result as indented JSON
func (s *IntelligenceApplicationService) DetectAddressChain(address string) (*entity.ChainDetection, string) {
	detection := s.detector.Detect(address)
	data, err := json.MarshalIndent(detection, "", "  ")
	if err != nil {
		return detection, detection.Description
	}
	return detection, string(data)
}

func (s *IntelligenceApplicationService) failure(what, address string, err error) error {
	s.logger.Warn("Intelligence request failed",
		zap.String("request", what),
		zap.String("address", address),
		zap.Error(err))
	return fmt.Errorf("Failed to get %s: %w", what, err)
}

type namedEntry struct {
	name string
	list entity.NamedList
}

func formatNames(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return "\n  " + strings.Join(items, "\n  ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatCounterpartyAmount uses three decimals from 1 upwards and six below
func formatCounterpartyAmount(amount float64) string {
	if amount >= 1 {
		return groupThousands(strconv.FormatFloat(amount, 'f', 3, 64))
	}
	return strconv.FormatFloat(amount, 'f', 6, 64)
}

func groupThousands(number string) string {
	intPart, fracPart, _ := strings.Cut(number, ".")
	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if fracPart != "" {
		b.WriteString("." + fracPart)
	}
	return b.String()
}

func formatUnix(ts int64) string {
	if ts <= 0 {
		return "Unknown"
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05")
}
