package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Epoch numbers at or above this are read as milliseconds, below as seconds.
const epochMillisThreshold = 1e11

// UnmarshalJSON decodes a task leniently: timestamps may be strings, epoch
// numbers or null, and total_stages may be a number or a numeric string.
// Values of any other shape are left empty instead of failing the task.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		CreatedAt   json.RawMessage `json:"created_at"`
		UpdatedAt   json.RawMessage `json:"updated_at"`
		AbortedAt   json.RawMessage `json:"aborted_at"`
		TotalStages json.RawMessage `json:"total_stages"`
	}{plain: (*plain)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.CreatedAt = decodeTimestamp(aux.CreatedAt)
	t.UpdatedAt = decodeTimestamp(aux.UpdatedAt)
	t.AbortedAt = decodeTimestamp(aux.AbortedAt)
	t.TotalStages = decodeInt(aux.TotalStages)

	return nil
}

// UnmarshalJSON decodes a stage event with a lenient timestamp.
func (e *StageEvent) UnmarshalJSON(data []byte) error {
	type plain StageEvent
	aux := struct {
		*plain
		At json.RawMessage `json:"at"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.At = decodeTimestamp(aux.At)

	return nil
}

// UnmarshalJSON decodes a progress message with a lenient timestamp.
func (m *ProgressMessage) UnmarshalJSON(data []byte) error {
	type plain ProgressMessage
	aux := struct {
		*plain
		At json.RawMessage `json:"at"`
	}{plain: (*plain)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.At = decodeTimestamp(aux.At)

	return nil
}

// decodeTimestamp returns strings as received and epoch numbers as RFC3339 in
// UTC. Anything else is empty.
func decodeTimestamp(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 'n', 't', 'f', '{', '[':
		return ""
	}

	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return ""
	}

	var ts time.Time
	if math.Abs(n) >= epochMillisThreshold {
		ts = time.UnixMilli(int64(n))
	} else {
		sec, frac := math.Modf(n)
		ts = time.Unix(int64(sec), int64(frac*float64(time.Second)))
	}

	return ts.UTC().Format(time.RFC3339Nano)
}

// decodeInt reads numbers and numeric strings, anything else is 0.
func decodeInt(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		s = strings.TrimSpace(s)
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > math.MaxInt32 {
		return 0
	}

	return int(n)
}
