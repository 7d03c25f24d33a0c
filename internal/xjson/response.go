package xjson

import "github.com/smartrag/smartrag-core/pkg/ragtypes"

// MarshalResponse serializes a RagResponse for the process boundary
// (spec.md §6: "serialized as JSON when crossing a process boundary").
func MarshalResponse(r *ragtypes.RagResponse) ([]byte, error) {
	return Marshal(r)
}
