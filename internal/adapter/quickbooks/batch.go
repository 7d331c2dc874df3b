package quickbooks

import "encoding/json"

// BatchRequest is the provider's batched-write envelope.
type BatchRequest struct {
	Items []BatchItem `json:"BatchItemRequest"`
}

// BatchItem is one tagged operation inside a batch. Exactly one of the
// entity fields is set.
type BatchItem struct {
	BID       string          `json:"bId"`
	Operation string          `json:"operation"`
	Bill      json.RawMessage `json:"Bill,omitempty"`
	Purchase  json.RawMessage `json:"Purchase,omitempty"`
}
