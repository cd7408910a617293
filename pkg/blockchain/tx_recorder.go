package blockchain

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransactionStatus represents the status of a transaction
type TransactionStatus int

const (
	// TxPending indicates transaction is pending
	TxPending TransactionStatus = iota
	// TxConfirmed indicates transaction is confirmed
	TxConfirmed
	// TxFailed indicates transaction reverted or could not be confirmed
	TxFailed
)

func (s TransactionStatus) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxConfirmed:
		return "confirmed"
	case TxFailed:
		return "failed"
	}
	return "unknown"
}

// TransactionRecord tracks details about a submitted transaction
type TransactionRecord struct {
	Hash      common.Hash
	From      common.Address
	Nonce     uint64
	Op        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Status    TransactionStatus
	Receipt   *types.Receipt
	Err       error
}

// TxRecorder keeps a per-signer log of every transaction sent through a Chain
type TxRecorder struct {
	// Records in submission order
	records []*TransactionRecord
	// Index by hash for status updates
	byHash map[common.Hash]*TransactionRecord
	mu     sync.RWMutex
}

// NewTxRecorder creates an empty recorder
func NewTxRecorder() *TxRecorder {
	return &TxRecorder{
		byHash: make(map[common.Hash]*TransactionRecord),
	}
}

// Track records a newly submitted transaction as pending
func (r *TxRecorder) Track(op string, from common.Address, tx *types.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	record := &TransactionRecord{
		Hash:      tx.Hash(),
		From:      from,
		Nonce:     tx.Nonce(),
		Op:        op,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    TxPending,
	}
	r.records = append(r.records, record)
	r.byHash[record.Hash] = record
}

// MarkConfirmed marks a transaction as confirmed and attaches its receipt
func (r *TxRecorder) MarkConfirmed(hash common.Hash, receipt *types.Receipt) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.byHash[hash]
	if !exists {
		return false
	}

	record.Status = TxConfirmed
	record.Receipt = receipt
	record.UpdatedAt = time.Now()
	return true
}

// MarkFailed marks a transaction as failed; receipt may be nil when the
// transaction was never mined
func (r *TxRecorder) MarkFailed(hash common.Hash, receipt *types.Receipt, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.byHash[hash]
	if !exists {
		return false
	}

	record.Status = TxFailed
	record.Receipt = receipt
	record.Err = err
	record.UpdatedAt = time.Now()
	return true
}

// Get returns a copy of the record for a transaction hash
func (r *TxRecorder) Get(hash common.Hash) (TransactionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.byHash[hash]
	if !exists {
		return TransactionRecord{}, false
	}
	return *record, true
}

// Records returns copies of all records for op in submission order. An empty
// op matches every record.
func (r *TxRecorder) Records(op string) []TransactionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []TransactionRecord
	for _, record := range r.records {
		if op == "" || record.Op == op {
			out = append(out, *record)
		}
	}
	return out
}

// RecordsFrom returns copies of all records submitted by a signer
func (r *TxRecorder) RecordsFrom(from common.Address) []TransactionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []TransactionRecord
	for _, record := range r.records {
		if record.From == from {
			out = append(out, *record)
		}
	}
	return out
}

// Count returns the number of transactions recorded for op
func (r *TxRecorder) Count(op string) int {
	return len(r.Records(op))
}

// PendingCount returns the number of transactions not yet confirmed or failed
func (r *TxRecorder) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, record := range r.records {
		if record.Status == TxPending {
			count++
		}
	}
	return count
}

// Reset drops every record
func (r *TxRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
	r.byHash = make(map[common.Hash]*TransactionRecord)
}
