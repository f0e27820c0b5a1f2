package entity

// AddressLabels holds the labels the intelligence provider knows for an address
type AddressLabels struct {
	LabelList []string `json:"label_list"`
	LabelType string   `json:"label_type"`
}

// AddressOverview holds balance and activity statistics for an address
type AddressOverview struct {
	Balance          float64 `json:"balance"`
	TxsCount         int64   `json:"txs_count"`
	FirstSeen        int64   `json:"first_seen"`
	LastSeen         int64   `json:"last_seen"`
	TotalReceived    float64 `json:"total_received"`
	TotalSpent       float64 `json:"total_spent"`
	ReceivedTxsCount int64   `json:"received_txs_count"`
	SpentTxsCount    int64   `json:"spent_txs_count"`
}

// RiskScore is the provider's risk assessment for an address or transaction
type RiskScore struct {
	Score      float64  `json:"score"`
	Level      string   `json:"level"`
	DetailList []string `json:"detail_list"`
}

// RiskLevelName returns the human readable name of the provider's risk level
func (r *RiskScore) RiskLevelName() string {
	switch r.Level {
	case "low":
		return "Low Risk"
	case "medium":
		return "Medium Risk"
	case "high":
		return "High Risk"
	default:
		return "Unknown"
	}
}

// ActionStat is the share of transactions attributed to one kind of action
type ActionStat struct {
	Action     string  `json:"action"`
	Count      int64   `json:"count"`
	Proportion float64 `json:"proportion"`
}

// AddressAction splits received and spent transactions by action
type AddressAction struct {
	ReceivedTxs []ActionStat `json:"received_txs"`
	SpentTxs    []ActionStat `json:"spent_txs"`
}

// NamedList is a counted list of names as returned by the trace endpoint
type NamedList struct {
	Count int      `json:"count"`
	Items []string `json:"items"`
}

// PlatformUsage lists platforms an address interacted with
type PlatformUsage struct {
	Exchange NamedList `json:"exchange"`
	DEX      NamedList `json:"dex"`
	Mixer    NamedList `json:"mixer"`
	NFT      NamedList `json:"nft"`
}

// MaliciousEvents lists security incidents an address is linked to
type MaliciousEvents struct {
	Phishing NamedList `json:"phishing"`
	Ransom   NamedList `json:"ransom"`
	Stealing NamedList `json:"stealing"`
}

// Total returns the number of linked incidents of every kind
func (m MaliciousEvents) Total() int {
	return m.Phishing.Count + m.Ransom.Count + m.Stealing.Count
}

// RelationInfo lists identities linked to an address
type RelationInfo struct {
	Wallet  NamedList `json:"wallet"`
	ENS     NamedList `json:"ens"`
	Twitter NamedList `json:"twitter"`
}

// AddressTrace is the threat intelligence profile of an address
type AddressTrace struct {
	UsePlatform    PlatformUsage   `json:"use_platform"`
	MaliciousEvent MaliciousEvents `json:"malicious_event"`
	RelationInfo   RelationInfo    `json:"relation_info"`
}

// Counterparty is an entity an address exchanged funds with
type Counterparty struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// APIStatus is the provider status, including the coins it supports
type APIStatus struct {
	SupportCoin []string `json:"support_coin"`
}

// ChainDetection is the result of guessing a chain from an address format
type ChainDetection struct {
	Success          bool     `json:"success"`
	Address          string   `json:"address"`
	DetectedChains   []string `json:"detected_chains"`
	Description      string   `json:"description"`
	RecommendedCoins []string `json:"recommended_coins"`
}
