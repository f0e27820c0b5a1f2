package service

import (
	"context"

	"misttrack-mcp-server/internal/domain/entity"
)

// LedgerClient fetches pages of address-to-address transfers from the remote ledger.
// A failed call returns an error; a successful call with no transfers returns an empty page.
type LedgerClient interface {
	FetchTransactions(ctx context.Context, query entity.TransactionQuery) (*entity.TransactionPage, error)
}

// IntelligenceClient exposes the remaining blockchain intelligence endpoints
type IntelligenceClient interface {
	LedgerClient

	// GetAPIStatus returns the provider status and the supported coins
	GetAPIStatus(ctx context.Context) (*entity.APIStatus, error)

	// GetAddressLabels returns the labels of an address
	GetAddressLabels(ctx context.Context, coin, address string) (*entity.AddressLabels, error)

	// GetAddressOverview returns balance and statistics of an address
	GetAddressOverview(ctx context.Context, coin, address string) (*entity.AddressOverview, error)

	// GetRiskScore returns the risk score of an address or a transaction hash
	GetRiskScore(ctx context.Context, coin, address, txid string) (*entity.RiskScore, error)

	// GetAddressAction returns the action breakdown of an address
	GetAddressAction(ctx context.Context, coin, address string) (*entity.AddressAction, error)

	// GetAddressTrace returns the threat intelligence profile of an address
	GetAddressTrace(ctx context.Context, coin, address string) (*entity.AddressTrace, error)

	// GetAddressCounterparty returns the counterparties of an address
	GetAddressCounterparty(ctx context.Context, coin, address string) ([]entity.Counterparty, error)
}
