package entity

// Direction is the side of a queried address a transfer was observed on
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// TransactionType filters which side of an address the remote API returns
type TransactionType string

const (
	TransactionTypeIn  TransactionType = "in"
	TransactionTypeOut TransactionType = "out"
	TransactionTypeAll TransactionType = "all"
)

// IsValid reports whether the type is one the remote API accepts.
// The empty type means "not set" and is also accepted.
func (t TransactionType) IsValid() bool {
	switch t {
	case "", TransactionTypeIn, TransactionTypeOut, TransactionTypeAll:
		return true
	default:
		return false
	}
}

// Transfer is one counterparty entry of a transactions investigation page
type Transfer struct {
	Address  string   `json:"address"`
	Amount   float64  `json:"amount"`
	Label    string   `json:"label"`
	TxHashes []string `json:"tx_hash_list"`
}

// TransactionPage is a single page of inflow and outflow transfers for an address
type TransactionPage struct {
	In  []Transfer `json:"in"`
	Out []Transfer `json:"out"`
}

// TransactionQuery identifies one page of transfers on the remote ledger.
// Zero timestamps mean "no bound" and an empty type means both directions.
type TransactionQuery struct {
	Coin           string          `json:"coin"`
	Address        string          `json:"address"`
	StartTimestamp int64           `json:"start_timestamp,omitempty"`
	EndTimestamp   int64           `json:"end_timestamp,omitempty"`
	Type           TransactionType `json:"type,omitempty"`
	Page           int             `json:"page,omitempty"`
}

// Edge is a transfer observed while expanding an address, relative to that address
type Edge struct {
	Counterparty string    `json:"address"`
	Amount       float64   `json:"amount"`
	Label        string    `json:"label"`
	TxHashes     []string  `json:"tx_hashes"`
	Direction    Direction `json:"direction"`
}

// HasTransactions reports whether the edge carries at least one transaction hash
func (e Edge) HasTransactions() bool {
	return len(e.TxHashes) > 0
}

// GraphEdge is an adjacency entry of the transaction graph: funds moving from
// the key address to To
type GraphEdge struct {
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Label     string    `json:"label"`
	TxHashes  []string  `json:"tx_hashes"`
	Direction Direction `json:"direction"`
}

// AddressSnapshot records how an address was reached and what was fetched for it
type AddressSnapshot struct {
	Address       string `json:"address"`
	Depth         int    `json:"depth"`
	ParentAddress string `json:"parent_address,omitempty"`
	ParentTxHash  string `json:"parent_tx_hash,omitempty"`
	Inflow        []Edge `json:"inflow"`
	Outflow       []Edge `json:"outflow"`
}

// Edges returns inflow edges followed by outflow edges
func (s *AddressSnapshot) Edges() []Edge {
	edges := make([]Edge, 0, len(s.Inflow)+len(s.Outflow))
	edges = append(edges, s.Inflow...)
	return append(edges, s.Outflow...)
}
