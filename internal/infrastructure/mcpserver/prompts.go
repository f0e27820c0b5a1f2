package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

type promptTemplate struct {
	name        string
	description string
	arguments   []string
	render      func(args map[string]string) string
}

var argumentDescriptions = map[string]string{
	"coin":    "Coin type, such as ETH, BTC, etc.",
	"address": "Blockchain address",
	"txid":    "Transaction hash",
}

var promptTemplates = []promptTemplate{
	{
		name:        "analyze-address",
		description: "Analyze a blockchain address: type, balance, labels and risk",
		arguments:   []string{"coin", "address"},
		render: func(args map[string]string) string {
			return fmt.Sprintf(`Please analyze the following %s blockchain address: %s

First use detect_address_chain to confirm the address type, then use get_address_overview to view address overview information, and finally use get_address_labels to see if the address has relevant labels. If the address has risk, please use get_risk_score to check the risk score.

Please provide the following information:
1. Address type and balance
2. Address labels (if any)
3. Risk score (if applicable)`, args["coin"], args["address"])
		},
	},
	{
		name:        "risk-assessment",
		description: "Conduct a risk assessment for a blockchain address",
		arguments:   []string{"coin", "address"},
		render: func(args map[string]string) string {
			return fmt.Sprintf(`Please conduct a risk assessment for the following %s blockchain address: %s

Please use the following tools to collect information:
1. Use get_risk_score to get the risk score
2. Use get_address_labels to view address labels
3. Use check_malicious_funds to check for malicious funds
4. Use get_address_trace to get address-related intelligence

Please comprehensively analyze the above information and provide a risk assessment report.`, args["coin"], args["address"])
		},
	},
	{
		name:        "investigate-transaction",
		description: "Investigate a single transaction",
		arguments:   []string{"coin", "txid"},
		render: func(args map[string]string) string {
			return fmt.Sprintf(`Please help me investigate this %s transaction: %s

Please use the following tools to obtain detailed information:
1. get_risk_score - Get transaction risk score and security assessment
2. check_malicious_funds - Check if it involves malicious activities or suspicious funds

Based on the above information, please provide a transaction analysis report, focusing on:
1. The transaction's risk score and security status
2. The amount and impact involved in the transaction
3. The history and credibility of transaction participants
4. Whether there are associations with known malicious activities
5. Recommended follow-up actions (if needed)`, args["coin"], args["txid"])
		},
	},
	{
		name:        "recursive-transaction-analysis",
		description: "Trace fund flows around an address across several hops",
		arguments:   []string{"coin", "address"},
		render: func(args map[string]string) string {
			return fmt.Sprintf(`Please conduct deep recursive transaction analysis for the %s address: %s

Please use the following tools for fund flow and transaction relationship analysis:
1. analyze_transactions_recursive - Recursively analyze transaction relationships, supports setting transaction type and depth
2. get_address_labels - Get label information for related addresses
3. get_risk_score - Get risk scores for related addresses
4. get_address_trace - Get threat intelligence information for related addresses
5. check_malicious_funds - Check if related addresses contain malicious funds

Analysis key points:
1. Analyze fund inflows (transaction_type="in") and outflows (transaction_type="out") separately
2. Gradually increase analysis depth (max_depth parameter) from shallow to deep, recommend starting from 1, then increase to 2 or 3 as needed
3. Focus on high-value transaction paths and suspicious fund flows
4. Conduct detailed analysis on key node addresses to determine their risk status and identity labels
5. Identify final fund flow destinations (such as exchanges, mixers, etc.)
6. Detect if there are dispersed transfers, circular transfers, or other money laundering techniques

Please provide a detailed transaction graph analysis report, including:
1. Main fund flow paths
2. Key node addresses and their risk status
3. Analysis of final fund destinations
4. Identification of suspicious transaction patterns
5. Risk assessment and security recommendations`, args["coin"], args["address"])
		},
	},
}

func (s *Server) registerPrompts() {
	for _, tmpl := range promptTemplates {
		opts := []mcp.PromptOption{mcp.WithPromptDescription(tmpl.description)}
		for _, arg := range tmpl.arguments {
			opts = append(opts, mcp.WithArgument(arg,
				mcp.ArgumentDescription(argumentDescriptions[arg]),
				mcp.RequiredArgument()))
		}
		s.mcp.AddPrompt(mcp.NewPrompt(tmpl.name, opts...), renderPrompt(tmpl))
	}
}

func renderPrompt(tmpl promptTemplate) func(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		for _, arg := range tmpl.arguments {
			if req.Params.Arguments[arg] == "" {
				return nil, fmt.Errorf("prompt %s: missing required argument %q", tmpl.name, arg)
			}
		}

		return mcp.NewGetPromptResult(tmpl.description, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(tmpl.render(req.Params.Arguments))),
		}), nil
	}
}
