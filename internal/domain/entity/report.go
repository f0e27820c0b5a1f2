package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// ImportantAddress is a counterparty whose label matched a tracked category
type ImportantAddress struct {
	Address   string        `json:"address"`
	Label     string        `json:"label"`
	Category  LabelCategory `json:"category"`
	Depth     int           `json:"depth"`
	Direction Direction     `json:"direction"`
	Amount    float64       `json:"amount"`
	TxHashes  []string      `json:"tx_hashes"`
}

// PathStep is one hop of a fund-flow path
type PathStep struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Label     string    `json:"label"`
	Direction Direction `json:"direction"`
	TxHashes  []string  `json:"tx_hashes"`
}

// LabeledAddress pairs a counterparty with the label observed on its edge.
// It is encoded as a two element array: [address, label].
type LabeledAddress struct {
	Address string
	Label   string
}

func (la LabeledAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{la.Address, la.Label})
}

func (la *LabeledAddress) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("labeled address: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("labeled address: expected [address, label], got %d elements", len(pair))
	}
	la.Address, la.Label = pair[0], pair[1]
	return nil
}

// AnalysisReport is the result of one recursive transaction analysis
type AnalysisReport struct {
	RootAddress             string                   `json:"root_address"`
	Coin                    string                   `json:"coin"`
	TotalAddresses          int                      `json:"total_addresses"`
	ImportantAddresses      []ImportantAddress       `json:"important_addresses"`
	FundFlowPaths           [][]PathStep             `json:"fund_flow_paths"`
	LabelStatistics         map[string]int           `json:"label_statistics"`
	DepthStatistics         map[int]int              `json:"depth_statistics"`
	LabeledAddressesByDepth map[int][]LabeledAddress `json:"labeled_addresses_by_depth"`
	EarlyStopped            bool                     `json:"early_stopped,omitempty"`
	Error                   bool                     `json:"error,omitempty"`
	Message                 string                   `json:"message,omitempty"`
}

// NewAnalysisReport returns a report with all collections initialized
func NewAnalysisReport(coin, rootAddress string) *AnalysisReport {
	return &AnalysisReport{
		RootAddress:             rootAddress,
		Coin:                    coin,
		ImportantAddresses:      []ImportantAddress{},
		FundFlowPaths:           [][]PathStep{},
		LabelStatistics:         make(map[string]int),
		DepthStatistics:         make(map[int]int),
		LabeledAddressesByDepth: make(map[int][]LabeledAddress),
	}
}

// NewFailedAnalysisReport returns an empty report carrying an error message
func NewFailedAnalysisReport(coin, rootAddress, message string) *AnalysisReport {
	report := NewAnalysisReport(coin, rootAddress)
	report.Error = true
	report.Message = message
	return report
}

// AnalysisRun wraps a report with the state needed to persist and announce it
type AnalysisRun struct {
	ID        string             `json:"id"`
	MaxDepth  int                `json:"max_depth"`
	Report    *AnalysisReport    `json:"report"`
	Snapshots []*AddressSnapshot `json:"snapshots"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
}

// AnalysisCompletedEvent is published once an analysis run has finished
type AnalysisCompletedEvent struct {
	RunID              string    `json:"run_id"`
	Coin               string    `json:"coin"`
	RootAddress        string    `json:"root_address"`
	MaxDepth           int       `json:"max_depth"`
	TotalAddresses     int       `json:"total_addresses"`
	ImportantAddresses int       `json:"important_addresses"`
	FundFlowPaths      int       `json:"fund_flow_paths"`
	EarlyStopped       bool      `json:"early_stopped"`
	Failed             bool      `json:"failed"`
	CompletedAt        time.Time `json:"completed_at"`
}

// NewAnalysisCompletedEvent summarizes a run for publication
func NewAnalysisCompletedEvent(run *AnalysisRun, completedAt time.Time) *AnalysisCompletedEvent {
	return &AnalysisCompletedEvent{
		RunID:              run.ID,
		Coin:               run.Report.Coin,
		RootAddress:        run.Report.RootAddress,
		MaxDepth:           run.MaxDepth,
		TotalAddresses:     run.Report.TotalAddresses,
		ImportantAddresses: len(run.Report.ImportantAddresses),
		FundFlowPaths:      len(run.Report.FundFlowPaths),
		EarlyStopped:       run.Report.EarlyStopped,
		Failed:             run.Report.Error,
		CompletedAt:        completedAt,
	}
}
