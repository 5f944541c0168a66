package local

import (
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/seantiz/soundbatch/internal/audio"
)

// DefaultFormats returns a registry with every decoder the local engine ships.
func DefaultFormats() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(audio.Format{Name: FormatWAV, Extensions: []string{"wav"}, Decode: decodeWAV})
	r.Register(audio.Format{Name: FormatMP3, Extensions: []string{"mp3", "mpeg"}, Decode: mp3.Decode})
	r.Register(audio.Format{Name: FormatVorbis, Extensions: []string{"ogg"}, Decode: vorbis.Decode})
	return r
}

// wav.Decode takes a plain reader; the streamer closes it when it is a Closer.
func decodeWAV(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	return wav.Decode(rc)
}
