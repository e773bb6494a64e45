package metrics

import "strings"

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func joinPath(segments []string) string {
	return strings.Join(segments, "/")
}
