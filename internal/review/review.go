// Package review validates the homework-statuses feed and renders review
// verdicts as notification text.
package review

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is a review state as reported by the API. The set is closed:
// anything else in the feed is an error, never silently skipped.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// verdicts is the fixed status -> display text table. The wording is part
// of the bot's contract with its users; do not edit casually.
var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Batch is the validated content of one feed response. Records stay raw:
// only the newest one is ever interpreted, and a malformed older entry
// must not fail the cycle.
type Batch struct {
	Homeworks []json.RawMessage

	// CurrentDate is the server-acknowledged cursor for the next poll.
	// Valid only when HasDate is true.
	CurrentDate int64
	HasDate     bool
}

var nullLiteral = []byte("null")

// Validate checks the decoded response against the expected shape: a JSON
// object with a "homeworks" array, plus an optional "current_date" cursor.
func Validate(raw json.RawMessage) (*Batch, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &SchemaError{Reason: "response is not a JSON object"}
	}

	hw, ok := top["homeworks"]
	if !ok {
		return nil, &SchemaError{Reason: `response has no "homeworks" key`}
	}
	if bytes.Equal(bytes.TrimSpace(hw), nullLiteral) {
		return nil, &SchemaError{Reason: `"homeworks" is null, expected an array`}
	}
	var records []json.RawMessage
	if err := json.Unmarshal(hw, &records); err != nil {
		return nil, &SchemaError{Reason: `"homeworks" is not an array`}
	}

	b := &Batch{Homeworks: records}
	if cd, ok := top["current_date"]; ok {
		var ts int64
		if err := json.Unmarshal(cd, &ts); err == nil {
			b.CurrentDate = ts
			b.HasDate = true
		}
	}
	return b, nil
}

// Interpret renders one homework record as the user-facing status-change
// message. Missing fields are a *SchemaError, an unlisted status is an
// *UnknownStatusError.
func Interpret(record json.RawMessage) (string, error) {
	var hw struct {
		Name   *string `json:"homework_name"`
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(record, &hw); err != nil {
		return "", &SchemaError{Reason: "homework entry is malformed"}
	}
	if hw.Name == nil {
		return "", &SchemaError{Reason: `homework entry has no "homework_name"`}
	}
	if hw.Status == nil {
		return "", &SchemaError{Reason: `homework entry has no "status"`}
	}

	verdict, ok := verdicts[Status(*hw.Status)]
	if !ok {
		return "", &UnknownStatusError{Status: *hw.Status}
	}
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", *hw.Name, verdict), nil
}
