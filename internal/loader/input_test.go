package loader

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/seantiz/soundbatch/internal/model"
)

func TestDecodeInput(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr error
	}{
		{"path", `"a.mp3"`, 1, nil},
		{"descriptor", `{"id":"a","src":"a.mp3"}`, 1, nil},
		{"list", ` ["a.mp3", {"src":"b.ogg"}]`, 2, nil},
		{"empty list", `[]`, 0, nil},
		{"number", `42`, 0, ErrUnsupportedInput},
		{"null", `null`, 0, ErrUnsupportedInput},
		{"blank", `  `, 0, ErrUnsupportedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInput(json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeInput: %v", err)
			}
			if got := len(in.Descriptors()); got != tt.want {
				t.Errorf("len(Descriptors()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecodeInputMalformed(t *testing.T) {
	if _, err := DecodeInput(json.RawMessage(`{"src": 5}`)); err == nil {
		t.Error("expected error for numeric src")
	}
	if _, err := DecodeInput(json.RawMessage(`"unterminated`)); err == nil {
		t.Error("expected error for broken string")
	}
}

func TestDescriptorsForAppliesPathOptions(t *testing.T) {
	data := model.AuxData{Channels: 3}
	cfg := loadConfig{id: "custom", data: &data}

	got := descriptorsFor(model.Path("a.mp3"), cfg)
	if len(got) != 1 || got[0].ID != "custom" || got[0].Data == nil || got[0].Data.Channels != 3 {
		t.Errorf("path descriptors = %+v", got)
	}

	d := model.Descriptor{ID: "own", Source: model.Source{Path: "b.mp3"}}
	got = descriptorsFor(d, cfg)
	if got[0].ID != "own" || got[0].Data != nil {
		t.Errorf("descriptor options leaked: %+v", got[0])
	}

	if got := descriptorsFor(nil, cfg); got != nil {
		t.Errorf("nil input = %+v, want nil", got)
	}
}
