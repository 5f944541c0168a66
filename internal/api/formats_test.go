package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seantiz/soundbatch/internal/audio"
)

func TestListFormats(t *testing.T) {
	srv, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/formats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var formats []audio.FormatInfo
	if err := json.NewDecoder(resp.Body).Decode(&formats); err != nil {
		t.Fatalf("decode: %v", err)
	}

	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	want := []string{"mp3", "vorbis", "wav"}
	if len(names) != len(want) {
		t.Fatalf("formats = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("formats[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
