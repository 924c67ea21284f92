package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionStatus represents the terminal status of a transaction
type TransactionStatus string

const (
	TransactionStatusConfirmed TransactionStatus = "CONFIRMED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction represents a submitted state-changing call
type Transaction struct {
	Target common.Address `json:"target"`
	Method string         `json:"method"` // empty for contract creation
	Args   []any          `json:"args,omitempty"`

	Hash        common.Hash       `json:"hash"`
	Status      TransactionStatus `json:"status"`
	BlockNumber uint64            `json:"blockNumber,omitempty"`
	Sender      common.Address    `json:"sender"`
	Nonce       uint64            `json:"nonce"`
	GasUsed     uint64            `json:"gasUsed,omitempty"`
	Reason      string            `json:"reason,omitempty"` // set when Status is FAILED

	CreatedAt time.Time `json:"createdAt"`
}

// Confirmed reports whether the transaction was included successfully
func (t *Transaction) Confirmed() bool {
	return t != nil && t.Status == TransactionStatusConfirmed
}
