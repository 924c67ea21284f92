package models

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Signer is the local identity that authorizes transactions
type Signer struct {
	Name    string
	Address common.Address
	Key     *ecdsa.PrivateKey `json:"-"`
}
