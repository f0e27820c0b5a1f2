package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const (
	coinsURI            = "coins://list"
	riskLevelGuideURI   = "misttrack://risk_level_guide"
	riskDescriptionsURI = "misttrack://risk_descriptions"
)

// fallbackCoins is served when the provider status cannot be fetched
var fallbackCoins = []string{
	"ETH", "BTC", "USDT-ERC20", "USDT-TRC20", "USDC", "BNB", "TRX",
	"SOL", "XRP", "ADA", "AVAX", "MATIC", "DOT", "TON",
}

const riskLevelGuide = `Risk Level Guide:
Severe: 91 ~ 100 - Prohibit withdrawals and transactions, report address immediately
High: 71 ~ 90 - Maintain high-level monitoring, analyze transactions through MistTrack AML platform or OpenAPI
Moderate: 31 ~ 70 - Requires moderate supervision
Low: 0 ~ 30 - Requires minimal supervision`

const riskDescriptions = `Risk Description Glossary:
- Malicious Address: Addresses directly involved in malicious events, such as: DeFi protocol attackers, centralized exchange hackers, sanctioned addresses, etc.
- Suspected Malicious Address: Addresses associated with malicious events
- High-Risk Tagged Address: High-risk entity addresses, such as: mixers, some nested exchanges, etc.
- Medium-Risk Tagged Address: Medium-risk entity addresses, such as: gambling, exchanges without KYC requirements, etc.
- Mixer: Mixing service entity addresses, such as: Tornado Cash, etc.
- Sanctioned Entity: Sanctioned entity addresses, such as: Garantex, etc.
- Risky Exchange: Exchanges without KYC requirements
- Gambling: Gambling entity addresses
- Involved in Theft Activity: Addresses involved in theft events
- Involved in Ransomware Activity: Addresses involved in ransomware events
- Involved in Phishing Activity: Addresses involved in phishing events
- Interacted with Malicious Address: Has interactions with malicious addresses
- Interacted with Suspected Malicious Address: Has interactions with suspected malicious addresses
- Interacted with High-Risk Tagged Address: Has interactions with high-risk addresses
- Interacted with Medium-Risk Tagged Address: Has interactions with medium-risk addresses`

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(coinsURI, "supported-coins",
		mcp.WithResourceDescription("Coins supported by the intelligence API"),
		mcp.WithMIMEType("application/json"),
	), s.supportedCoins)

	s.mcp.AddResource(mcp.NewResource(riskLevelGuideURI, "risk-level-guide",
		mcp.WithResourceDescription("Risk score ranges and the recommended response for each"),
		mcp.WithMIMEType("text/plain"),
	), staticText(riskLevelGuideURI, riskLevelGuide))

	s.mcp.AddResource(mcp.NewResource(riskDescriptionsURI, "risk-descriptions",
		mcp.WithResourceDescription("Glossary of risk detail descriptions"),
		mcp.WithMIMEType("text/plain"),
	), staticText(riskDescriptionsURI, riskDescriptions))
}

func (s *Server) supportedCoins(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	coins, err := s.intelligence.SupportedCoins(ctx)
	if err != nil || len(coins) == 0 {
		s.logger.Warn("Serving built-in coin list", zap.Error(err))
		coins = fallbackCoins
	}

	data, err := json.Marshal(map[string][]string{"coins": coins})
	if err != nil {
		return nil, fmt.Errorf("failed to encode coin list: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: coinsURI, MIMEType: "application/json", Text: string(data)},
	}, nil
}

func staticText(uri, text string) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: uri, MIMEType: "text/plain", Text: text},
		}, nil
	}
}
