package loader

import "regexp"

// sourcePattern captures the directory-free, extension-free file name of a
// path with a recognized audio extension.
var sourcePattern = regexp.MustCompile(`(.*/)?([^/]+?)\.(mp3|ogg|opus|mpeg|wav|m4a|mp4|aiff|wma|mid)$`)

// ResolveID returns the bare file name of an audio source path, or "" if the
// path does not end in a recognized audio extension.
func ResolveID(path string) string {
	m := sourcePattern.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	return m[2]
}
