package service

import (
	"context"
	"errors"
	"sync"

	"misttrack-mcp-server/internal/domain/entity"
)

// fakeLedger serves canned pages per address and records every fetch
type fakeLedger struct {
	mu      sync.Mutex
	pages   map[string]*entity.TransactionPage
	errs    map[string]error
	fetched []string
	queries []entity.TransactionQuery
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		pages: make(map[string]*entity.TransactionPage),
		errs:  make(map[string]error),
	}
}

func (f *fakeLedger) in(address string, transfers ...entity.Transfer) *fakeLedger {
	f.page(address).In = append(f.page(address).In, transfers...)
	return f
}

func (f *fakeLedger) out(address string, transfers ...entity.Transfer) *fakeLedger {
	f.page(address).Out = append(f.page(address).Out, transfers...)
	return f
}

func (f *fakeLedger) fail(address string) *fakeLedger {
	f.errs[address] = errors.New("upstream unavailable")
	return f
}

func (f *fakeLedger) page(address string) *entity.TransactionPage {
	if _, ok := f.pages[address]; !ok {
		f.pages[address] = &entity.TransactionPage{}
	}
	return f.pages[address]
}

func (f *fakeLedger) FetchTransactions(_ context.Context, query entity.TransactionQuery) (*entity.TransactionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetched = append(f.fetched, query.Address)
	f.queries = append(f.queries, query)
	if err, ok := f.errs[query.Address]; ok {
		return nil, err
	}
	if page, ok := f.pages[query.Address]; ok {
		return page, nil
	}
	return &entity.TransactionPage{}, nil
}

func (f *fakeLedger) fetchCount(address string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, fetched := range f.fetched {
		if fetched == address {
			count++
		}
	}
	return count
}

func transfer(address string, amount float64, label string, hashes ...string) entity.Transfer {
	return entity.Transfer{Address: address, Amount: amount, Label: label, TxHashes: hashes}
}
