package local

// EngineName identifies the local engine in logs and the formats endpoint.
const EngineName = "local"

// Defaults applied by LoadConfig when the environment is silent.
const (
	DefaultAssetRoot          = "."
	DefaultMaxConcurrentLoads = 8
)

// DefaultPreferredFormats is the variant preference order, by extension.
var DefaultPreferredFormats = []string{"ogg", "mp3", "wav"}

// Format names registered by DefaultFormats.
const (
	FormatWAV    = "wav"
	FormatMP3    = "mp3"
	FormatVorbis = "vorbis"
)
