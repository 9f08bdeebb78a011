package exiftool

import (
	"bytes"
	"fmt"
	"strings"
)

// MinCommandID and MaxCommandID bound the command id space (spec §3):
// ids are assigned in [MinCommandID, MaxCommandID] and wrap back to
// MinCommandID after MaxCommandID.
const (
	MinCommandID int32 = 1
	MaxCommandID int32 = 2_000_000_000
)

// awaitMarker renders the ten-digit zero-padded await marker for id.
func awaitMarker(id int32) string {
	return fmt.Sprintf("{await%010d}", id)
}

const readyMarker = "{ready}"

// needsExplicitStdoutReady reports whether the command string built so far
// (args plus the -echo1/-echo2 directives) makes exiftool suppress its
// normal stdout terminator, requiring the driver to request an explicit
// one via -echo3 (spec §4.1). This mirrors the original's asymmetric
// case rules: "-q" and "-T" are checked case-sensitively, "-quiet" and
// "-table" case-insensitively, as substrings of the whole built command
// rather than exact token matches (so e.g. "-TagsFromFile" also triggers
// it via its "-T" prefix, matching the original's behavior).
func needsExplicitStdoutReady(cmdStr string) bool {
	if strings.Contains(cmdStr, "-q") || strings.Contains(cmdStr, "-T") {
		return true
	}
	lower := strings.ToLower(cmdStr)
	return strings.Contains(lower, "-quiet") || strings.Contains(lower, "-table")
}

// buildScript renders the byte payload written to the child's stdin for
// command id carrying args, per spec §4.1 "Script framing".
func buildScript(id int32, args []string) []byte {
	var buf bytes.Buffer

	for _, a := range args {
		buf.WriteString(a)
		buf.WriteByte('\n')
	}

	marker := awaitMarker(id)

	buf.WriteString("-echo1\n")
	buf.WriteString(marker)
	buf.WriteByte('\n')

	buf.WriteString("-echo2\n")
	buf.WriteString(marker)
	buf.WriteByte('\n')

	if needsExplicitStdoutReady(buf.String()) {
		buf.WriteString("-echo3\n")
		buf.WriteString(readyMarker)
		buf.WriteByte('\n')
	}

	buf.WriteString("-echo4\n")
	buf.WriteString(readyMarker)
	buf.WriteByte('\n')

	buf.WriteString("-execute\n")

	return buf.Bytes()
}

// terminateScript is written to the child's stdin by Supervisor.Terminate.
var terminateScript = []byte("-stay_open\nfalse\n")
