package review

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestInterpretVerdicts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		record string
		want   string
	}{
		{
			name:   "approved",
			record: `{"homework_name":"hw1","status":"approved"}`,
			want:   `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`,
		},
		{
			name:   "reviewing",
			record: `{"homework_name":"hw1","status":"reviewing"}`,
			want:   `Изменился статус проверки работы "hw1". Работа взята на проверку ревьюером.`,
		},
		{
			name:   "rejected",
			record: `{"homework_name":"final_project","status":"rejected"}`,
			want:   `Изменился статус проверки работы "final_project". Работа проверена: у ревьюера есть замечания.`,
		},
		{
			name:   "extra fields ignored",
			record: `{"homework_name":"hw1","status":"approved","reviewer_comment":"nice","id":42}`,
			want:   `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Interpret(json.RawMessage(tt.record))
			if err != nil {
				t.Fatalf("Interpret error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Interpret = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterpretUnknownStatus(t *testing.T) {
	t.Parallel()
	_, err := Interpret(json.RawMessage(`{"homework_name":"hw1","status":"celebrated"}`))
	var use *UnknownStatusError
	if !errors.As(err, &use) {
		t.Fatalf("expected *UnknownStatusError, got %v", err)
	}
	if use.Status != "celebrated" {
		t.Fatalf("Status = %q, want %q", use.Status, "celebrated")
	}
}

func TestInterpretSchemaErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		record string
	}{
		{name: "missing name", record: `{"status":"approved"}`},
		{name: "missing status", record: `{"homework_name":"hw1"}`},
		{name: "not an object", record: `[1,2,3]`},
		{name: "status has wrong type", record: `{"homework_name":"hw1","status":7}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Interpret(json.RawMessage(tt.record))
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SchemaError, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	raw := json.RawMessage(`{"homeworks":[{"homework_name":"hw1","status":"reviewing"}],"current_date":1000}`)
	b, err := Validate(raw)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if len(b.Homeworks) != 1 {
		t.Fatalf("len(Homeworks) = %d, want 1", len(b.Homeworks))
	}
	if !b.HasDate || b.CurrentDate != 1000 {
		t.Fatalf("cursor = (%v, %d), want (true, 1000)", b.HasDate, b.CurrentDate)
	}
}

func TestValidateEmptyFeed(t *testing.T) {
	t.Parallel()
	b, err := Validate(json.RawMessage(`{"homeworks":[]}`))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if len(b.Homeworks) != 0 {
		t.Fatalf("expected empty batch, got %d records", len(b.Homeworks))
	}
	if b.HasDate {
		t.Fatal("expected no server cursor")
	}
}

func TestValidateSchemaErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not an object", raw: `[{"homework_name":"hw1"}]`},
		{name: "missing homeworks", raw: `{"current_date":1000}`},
		{name: "homeworks not an array", raw: `{"homeworks":{"homework_name":"hw1"}}`},
		{name: "homeworks is null", raw: `{"homeworks":null}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Validate(json.RawMessage(tt.raw))
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SchemaError, got %v", err)
			}
		})
	}
}

func TestValidateBadCursorKeepsRecords(t *testing.T) {
	t.Parallel()
	b, err := Validate(json.RawMessage(`{"homeworks":[],"current_date":"soon"}`))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if b.HasDate {
		t.Fatal("non-numeric cursor must be treated as absent")
	}
}
