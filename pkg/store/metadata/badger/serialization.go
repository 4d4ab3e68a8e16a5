package badger

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

func encodeEntry(e *metadata.Entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry %s: %w", e.Path, err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*metadata.Entry, error) {
	var e metadata.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}
	return &e, nil
}
