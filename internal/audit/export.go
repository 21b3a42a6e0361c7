package audit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/harrison/foreman/internal/filelock"
)

// AppendTrail appends events to a JSONL trail file, one event per line,
// holding a file lock so trails shared between concurrent runs stay
// line-atomic. Storage of the trail is the caller's concern; the
// executor itself only emits events.
func AppendTrail(path string, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, e := range events {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode audit event %s: %w", e.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	return filelock.LockAndAppend(path, buf.Bytes())
}
