package entity

// LabelCategory is a broad class of entity inferred from an address label
type LabelCategory string

const (
	LabelCategoryMixer     LabelCategory = "mixer"     // Privacy mixers (e.g., Tornado Cash)
	LabelCategoryExchange  LabelCategory = "exchange"  // Centralized exchanges
	LabelCategoryDEX       LabelCategory = "dex"       // Decentralized exchanges
	LabelCategoryDeFi      LabelCategory = "defi"      // Lending and other DeFi protocols
	LabelCategoryMalicious LabelCategory = "malicious" // Theft, phishing, scams
)

// LabelCategoryRule maps a category to the label fragments that identify it
type LabelCategoryRule struct {
	Category LabelCategory `json:"category"`
	Keywords []string      `json:"keywords"`
}

// DefaultLabelCategoryRules is the ordered category table used to flag important addresses.
// Keywords are matched case-insensitively as substrings of the label.
var DefaultLabelCategoryRules = []LabelCategoryRule{
	{
		Category: LabelCategoryMixer,
		Keywords: []string{"Tornado.Cash", "Wasabi", "Mixer"},
	},
	{
		Category: LabelCategoryExchange,
		Keywords: []string{"Binance", "Huobi", "OKEx", "Coinbase", "exchange", "okx", "gate.io", "weex", "huionepay", "binance"},
	},
	{
		Category: LabelCategoryDEX,
		Keywords: []string{"Uniswap", "SushiSwap", "PancakeSwap"},
	},
	{
		Category: LabelCategoryDeFi,
		Keywords: []string{"Aave", "Compound", "MakerDAO"},
	},
	{
		Category: LabelCategoryMalicious,
		Keywords: []string{"Suspected malicious", "Theft", "Phishing", "Scam", "Fraud"},
	},
}

// DefaultExchangeSinkKeywords end a walk when any fetched edge label contains one of them.
// Matching is case-sensitive.
var DefaultExchangeSinkKeywords = []string{"Binance", "Huobi", "OKEx", "Coinbase", "exchange"}
