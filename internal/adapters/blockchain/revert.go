package blockchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// errorReasonFromTx replays a mined transaction as a call at its block to
// recover the revert reason.
func errorReasonFromTx(ctx context.Context, caller ethereum.ContractCaller, from common.Address, tx *types.Transaction, receipt *types.Receipt) (string, error) {
	call := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Data:     tx.Data(),
		Value:    tx.Value(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
	}

	if _, err := caller.CallContract(ctx, call, receipt.BlockNumber); err != nil {
		reason, perr := jsonErrorData(err)
		if perr == nil {
			return reason, nil
		}
		return err.Error(), nil
	}

	return "", fmt.Errorf("tx %s reverted with no reason", tx.Hash().Hex())
}

// jsonErrorData extracts the revert data carried by an RPC error and decodes
// it when it is a standard Error(string) payload.
func jsonErrorData(err error) (string, error) {
	if err == nil {
		return "", errors.New("cannot parse nil error")
	}

	// rpc.jsonError is unexported
	type jsonError interface {
		Error() string
		ErrorCode() int
		ErrorData() any
	}

	var jerr jsonError
	if !errors.As(err, &jerr) {
		return "", fmt.Errorf("error must be of type jsonError: %w", err)
	}

	data := fmt.Sprintf("%v", jerr.ErrorData())
	if data == "" || data == "<nil>" {
		if strings.Contains(jerr.Error(), "missing trie node") {
			return "", errors.New("missing trie node, likely due to not using an archive node")
		}
		return "", nil
	}

	if raw, derr := hexutil.Decode(data); derr == nil {
		if reason, uerr := abi.UnpackRevert(raw); uerr == nil {
			return reason, nil
		}
	}
	return data, nil
}
