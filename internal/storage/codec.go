package storage

import (
	"encoding/json"
	"fmt"

	"github.com/hollis/centavo/internal/model"
)

// Encode serializes an entity to its stored payload. The SQL backends keep
// the audit columns alongside for indexing; on decode those columns win.
func Encode(e model.Entity) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", e.Type(), err)
	}
	return payload, nil
}

// Decode deserializes a stored payload into a fresh entity of the given type
// and overwrites its audit fields with the authoritative column values.
func Decode(t model.EntityType, payload []byte, meta model.Meta) (model.Entity, error) {
	e, err := model.New(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, e); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	*e.EntityMeta() = meta
	return e, nil
}

// Clone deep-copies an entity through the codec. The demo backend uses it so
// callers never share memory with stored rows.
func Clone(e model.Entity) (model.Entity, error) {
	payload, err := Encode(e)
	if err != nil {
		return nil, err
	}
	return Decode(e.Type(), payload, *e.EntityMeta())
}
