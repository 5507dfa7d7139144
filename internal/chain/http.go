package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPWriter talks to the ledger bridge service that owns the contract keys.
// The bridge exposes a single endpoint accepting the mark fields and
// returning the transaction hash once the write is confirmed.
type HTTPWriter struct {
	baseURL string
	client  *http.Client
}

func NewHTTPWriter(baseURL string) *HTTPWriter {
	return &HTTPWriter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type storeMarkRequest struct {
	FromParticipantID string `json:"fromParticipantId"`
	ToParticipantID   string `json:"toParticipantId"`
	Value             bool   `json:"value"`
	MarkType          string `json:"markType"`
}

type storeMarkResponse struct {
	TxHash string `json:"txHash"`
}

func (w *HTTPWriter) StoreMark(ctx context.Context, from, to string, value bool, markType string) (Receipt, error) {
	body, err := json.Marshal(storeMarkRequest{
		FromParticipantID: from,
		ToParticipantID:   to,
		Value:             value,
		MarkType:          markType,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("encode store mark request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/marks", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build store mark request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("store mark onchain: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Receipt{}, fmt.Errorf("ledger bridge returned status %d", resp.StatusCode)
	}
	var out storeMarkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Receipt{}, fmt.Errorf("decode store mark response: %w", err)
	}
	return Receipt{TxHash: out.TxHash}, nil
}
