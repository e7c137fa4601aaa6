package proxy

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
)

// Client payload served to browsers. The placeholder is replaced with the
// reload server's port at injection time.
//
//go:embed inject.js
var injectJS string

const portPlaceholder = "INSERT_PORT_HERE_KTHXBYE"

var (
	bodyClose    = []byte("</body>")
	commentOpen  = []byte("<!--")
	commentClose = []byte("-->")
)

// Inject returns input with the reload client script inserted immediately
// before the first `</body>` that is not inside an HTML comment. If no such
// occurrence exists, the script is appended at the end. Injection is
// best-effort formatting and never fails.
func Inject(input []byte, reloadPort int) []byte {
	bodyCloseIdx := -1
	insideComment := false
	for i := 0; i < len(input); i++ {
		rest := input[i:]
		switch {
		case !insideComment && bytes.HasPrefix(rest, bodyClose):
			bodyCloseIdx = i
		case !insideComment && bytes.HasPrefix(rest, commentOpen):
			insideComment = true
		case insideComment && bytes.HasPrefix(rest, commentClose):
			insideComment = false
		}
		if bodyCloseIdx >= 0 {
			break
		}
	}

	js := strings.ReplaceAll(injectJS, portPlaceholder, strconv.Itoa(reloadPort))
	script := "<script>\n" + js + "</script>"

	insertIdx := bodyCloseIdx
	if insertIdx < 0 {
		insertIdx = len(input)
	}

	out := make([]byte, 0, len(input)+len(script))
	out = append(out, input[:insertIdx]...)
	out = append(out, script...)
	out = append(out, input[insertIdx:]...)
	return out
}
