package chat

import (
	"encoding/json"
	"testing"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		input string
		want  ID
	}{
		{`42`, "42"},
		{`"42"`, "42"},
		{`"g-7"`, "g-7"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got ID
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIDRejectsObjects(t *testing.T) {
	var got ID
	if err := json.Unmarshal([]byte(`{"id":1}`), &got); err == nil {
		t.Error("Unmarshal(object) should fail")
	}
}

func TestFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    Flag
		wantErr bool
	}{
		{`true`, true, false},
		{`false`, false, false},
		{`1`, true, false},
		{`0`, false, false},
		{`"1"`, true, false},
		{`null`, false, false},
		{`2`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got Flag
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeyString(t *testing.T) {
	if got := DirectKey("7").String(); got != "direct:7" {
		t.Errorf("DirectKey(7) = %q", got)
	}
	if got := GroupKey("3").String(); got != "group:3" {
		t.Errorf("GroupKey(3) = %q", got)
	}
}
