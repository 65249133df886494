// Package utils holds small helpers shared by the chat services.
package utils

import (
	"github.com/valyala/bytebufferpool"
)

var segmentPool bytebufferpool.Pool

// ConcatSegments joins answer segments through a pooled buffer
func ConcatSegments(segments []string) string {
	switch len(segments) {
	case 0:
		return ""
	case 1:
		return segments[0]
	}

	buf := segmentPool.Get()
	defer segmentPool.Put(buf)
	for _, s := range segments {
		_, _ = buf.WriteString(s)
	}
	return buf.String()
}
