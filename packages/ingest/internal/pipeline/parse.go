package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedBatch = errors.New("malformed batch")

// Parse decodes a newline delimited JSON batch. Blank lines are skipped and any
// undecodable line rejects the whole batch. Lines that decode to something other
// than an object yield a nil record, which has no topic.
func Parse(body []byte) ([]map[string]any, error) {
	records := make([]map[string]any, 0, bytes.Count(body, []byte("\n"))+1)

	lineNo := 0
	for line := range bytes.SplitSeq(body, []byte("\n")) {
		lineNo++

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var value any
		if err := json.Unmarshal(line, &value); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedBatch, lineNo, err)
		}

		record, _ := value.(map[string]any)
		records = append(records, record)
	}

	return records, nil
}
