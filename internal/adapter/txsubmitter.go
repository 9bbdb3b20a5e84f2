package adapter

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SignerFunc signs a prepared transaction. Key management (keystore, remote
// signer, hardware wallet) lives entirely behind this function; the core
// never handles key material.
type SignerFunc func(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)

// TxSubmitter submits state-changing calls to the ledger and returns the
// transaction hash once the transaction has been broadcast.
//
//go:generate mockgen -source=txsubmitter.go -destination=../mocks/txsubmitter.go -package=mocks -mock_names=TxSubmitter=MockTxSubmitter
type TxSubmitter interface {
	// From returns the submitting identity
	From() common.Address

	// Submit prepares, signs and broadcasts a transaction for the given call
	Submit(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error)
}

// RealTxSubmitter prepares transactions against an EthClient and delegates
// signing to an injected SignerFunc.
type RealTxSubmitter struct {
	client EthClient
	signer SignerFunc
	from   common.Address
}

// NewTxSubmitter creates a new transaction submitter for the given identity
func NewTxSubmitter(client EthClient, from common.Address, signer SignerFunc) TxSubmitter {
	return &RealTxSubmitter{
		client: client,
		signer: signer,
		from:   from,
	}
}

// From returns the submitting identity
func (s *RealTxSubmitter) From() common.Address {
	return s.from
}

// Submit fills in nonce, gas price and gas limit, signs the transaction via
// the injected signer and broadcasts it
func (s *RealTxSubmitter) Submit(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error) {
	msg.From = s.from

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get pending nonce: %w", err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	gasLimit, err := s.client.EstimateGas(ctx, msg)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       msg.To,
		Value:    msg.Value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     msg.Data,
	})

	signed, err := s.signer(ctx, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed.Hash(), nil
}
