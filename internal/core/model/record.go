package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// ErrInvalidRecord is returned when a record fails boundary validation
var ErrInvalidRecord = errors.New("invalid log record")

// Level is the normalized severity of a log record
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelDebug   Level = "debug"
	LevelOther   Level = "other"
)

// ParseLevel maps a free-form level string to a Level. Unknown values map to LevelOther.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "err":
		return LevelError
	case "warning", "warn":
		return LevelWarning
	case "info", "information":
		return LevelInfo
	case "debug", "dbg", "trace":
		return LevelDebug
	default:
		return LevelOther
	}
}

// LogRecord is a single parsed Terraform log line.
// TS is nil when the line carried no recognizable timestamp; ReqID is empty
// when the line had no correlation key.
type LogRecord struct {
	ID       int64      `json:"id"`
	TS       *time.Time `json:"ts"`
	Level    Level      `json:"level"`
	ReqID    string     `json:"tf_req_id,omitempty"`
	Resource string     `json:"tf_resource,omitempty"`
	Section  string     `json:"section,omitempty"`
	Excerpt  string     `json:"text_excerpt"`
	RawJSON  string     `json:"raw_json,omitempty"`
	ReadFlag int        `json:"read_flag"`
}

// HasTimestamp reports whether the record can be placed on a time axis
func (r LogRecord) HasTimestamp() bool {
	return r.TS != nil && !r.TS.IsZero()
}

// IsRead reports whether the record was marked read
func (r LogRecord) IsRead() bool {
	return r.ReadFlag == 1
}

// Validate checks the invariants that cannot be repaired silently.
func (r LogRecord) Validate() error {
	if r.ReadFlag != 0 && r.ReadFlag != 1 {
		return fmt.Errorf("%w: record %d has read_flag %d", ErrInvalidRecord, r.ID, r.ReadFlag)
	}
	return nil
}

// wireRecord mirrors the JSON shape returned by the search endpoint.
// Optional fields are pointers so absent and null values are told apart from empty ones.
type wireRecord struct {
	ID       int64   `json:"id"`
	TS       *string `json:"ts"`
	Level    *string `json:"level"`
	ReqID    *string `json:"tf_req_id"`
	Resource *string `json:"tf_resource"`
	Section  *string `json:"section"`
	Excerpt  *string `json:"text_excerpt"`
	RawJSON  *string `json:"raw_json"`
	ReadFlag *int    `json:"read_flag"`
}

// wireInput is the decoding side of wireRecord. Fields that clients send with
// varying types are decoded loosely and normalized in UnmarshalJSON.
type wireInput struct {
	ID       int64       `json:"id"`
	TS       interface{} `json:"ts"`
	Level    interface{} `json:"level"`
	ReqID    interface{} `json:"tf_req_id"`
	Resource interface{} `json:"tf_resource"`
	Section  interface{} `json:"section"`
	Excerpt  interface{} `json:"text_excerpt"`
	RawJSON  interface{} `json:"raw_json"`
	ReadFlag interface{} `json:"read_flag"`
}

// UnmarshalJSON accepts the loosely typed wire shape and normalizes it.
// A ts that is not a parseable string is treated as absent rather than
// failing the record; only read_flag outside {0,1} is rejected.
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var w wireInput
	if err := sonic.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	rec := LogRecord{ID: w.ID, Level: LevelOther}
	if s, ok := w.TS.(string); ok {
		if ts, ok := ParseTimestamp(s); ok {
			rec.TS = &ts
		}
	}
	if s := text(w.Level); s != "" {
		rec.Level = ParseLevel(s)
	}
	rec.ReqID = text(w.ReqID)
	rec.Resource = text(w.Resource)
	rec.Section = text(w.Section)
	rec.Excerpt = text(w.Excerpt)
	rec.RawJSON = text(w.RawJSON)

	flag, err := readFlagOf(w.ReadFlag)
	if err != nil {
		return fmt.Errorf("%w: record %d: %v", ErrInvalidRecord, w.ID, err)
	}
	rec.ReadFlag = flag

	if err := rec.Validate(); err != nil {
		return err
	}
	*r = rec
	return nil
}

// text returns strings as is and integral numbers in decimal, e.g. a numeric
// request id. Other values are dropped.
func text(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
	}
	return ""
}

func readFlagOf(v interface{}) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case float64:
		if t == 0 || t == 1 {
			return int(t), nil
		}
	}
	return 0, fmt.Errorf("read_flag %v is not 0 or 1", v)
}

// MarshalJSON writes timestamps in RFC3339 with nanoseconds, or null when absent.
func (r LogRecord) MarshalJSON() ([]byte, error) {
	var ts *string
	if r.HasTimestamp() {
		s := r.TS.UTC().Format(time.RFC3339Nano)
		ts = &s
	}
	level := string(r.Level)
	w := wireRecord{
		ID:       r.ID,
		TS:       ts,
		Level:    &level,
		ReqID:    optional(r.ReqID),
		Resource: optional(r.Resource),
		Section:  optional(r.Section),
		Excerpt:  &r.Excerpt,
		RawJSON:  optional(r.RawJSON),
		ReadFlag: &r.ReadFlag,
	}
	return sonic.Marshal(w)
}

// DecodeRecords decodes a JSON array of records as returned by GET /search.
func DecodeRecords(data []byte) ([]LogRecord, error) {
	var records []LogRecord
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
