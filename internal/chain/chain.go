// Package chain defines the port to the external ledger that mirrors onchain
// marks, plus the retry policy wrapped around it. The concrete contract
// client lives outside this repository; everything here treats it as an
// opaque collaborator.
package chain

import "context"

//go:generate mockgen -destination=../../mocks/chain/mock_writer.go -package=chainmocks spectra/internal/chain Writer

// Receipt identifies a confirmed ledger write.
type Receipt struct {
	TxHash string
}

// Writer persists a mark to the external ledger contract.
type Writer interface {
	StoreMark(ctx context.Context, from, to string, value bool, markType string) (Receipt, error)
}
