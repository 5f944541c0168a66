package audio_test

import (
	"errors"
	"io"
	"testing"

	"github.com/gopxl/beep"

	"github.com/seantiz/soundbatch/internal/audio"
)

func stubDecode(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	return nil, beep.Format{}, errors.New("stub")
}

func TestRegistryRegisterAndList(t *testing.T) {
	reg := audio.NewRegistry()
	reg.Register(audio.Format{Name: "wav", Extensions: []string{"wav"}, Decode: stubDecode})
	reg.Register(audio.Format{Name: "mp3", Extensions: []string{"mpeg", "mp3"}, Decode: stubDecode})

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d formats, want 2", len(list))
	}
	if list[0].Name != "mp3" || list[1].Name != "wav" {
		t.Errorf("List() order = %v, want mp3 then wav", list)
	}
	if got := list[0].Extensions; len(got) != 2 || got[0] != "mp3" || got[1] != "mpeg" {
		t.Errorf("mp3 extensions = %v, want sorted [mp3 mpeg]", got)
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := audio.NewRegistry()
	reg.Register(audio.Format{Name: "mp3", Extensions: []string{"mp3", "mpeg"}, Decode: stubDecode})

	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"sounds/a.mp3", "mp3", false},
		{"b.MPEG", "mp3", false},
		{"c.wav", "", true},
		{"noext", "", true},
	}
	for _, tc := range tests {
		f, err := reg.Resolve(tc.path)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Resolve(%q): expected error, got format %q", tc.path, f.Name)
			}
			continue
		}
		if err != nil {
			t.Errorf("Resolve(%q): %v", tc.path, err)
			continue
		}
		if f.Name != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.path, f.Name, tc.want)
		}
	}

	if !reg.Supports("x.mp3") || reg.Supports("x.ogg") {
		t.Error("Supports disagrees with Resolve")
	}
}

func TestResolveSource(t *testing.T) {
	if got := audio.ResolveSource("sounds/", "a.mp3"); got != "sounds/a.mp3" {
		t.Errorf("ResolveSource = %q, want %q", got, "sounds/a.mp3")
	}
	if got := audio.ResolveSource("", "a.mp3"); got != "a.mp3" {
		t.Errorf("ResolveSource without base = %q", got)
	}
}
