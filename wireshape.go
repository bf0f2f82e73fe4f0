package dataclassio

import (
	"encoding/json"
	"fmt"
	"time"
)

// maxWireDepth bounds recursion through wire values carried in Any fields and
// unknown-attribute payloads.
const maxWireDepth = 64

// CheckWire verifies that v is composed only of values expressible under the
// given codec: nil, bool, string, int, float64, []any lists, and
// map[string]any objects with string keys. The rich codec additionally admits
// time.Time and []byte. Returns Issues on the first offending value.
func CheckWire(v any, c Codec) error {
	if iss := checkWireValue(v, c, "", 0); iss != nil {
		return iss
	}
	return nil
}

func checkWireValue(v any, c Codec, p string, depth int) Issues {
	if depth > maxWireDepth {
		return singleIssue(ptrPath(p), CodeMaxDepth, "while walking wire value")
	}
	switch tv := v.(type) {
	case nil, bool, string, int, int64, float64, json.Number:
		return nil
	case []byte:
		if c == CodecRich {
			return nil
		}
	case time.Time:
		if c == CodecRich {
			return nil
		}
	case []any:
		for i, e := range tv {
			if iss := checkWireValue(e, c, fmt.Sprintf("%s/%d", p, i), depth+1); iss != nil {
				return iss
			}
		}
		return nil
	case map[string]any:
		for k, e := range tv {
			if iss := checkWireValue(e, c, p+"/"+k, depth+1); iss != nil {
				return iss
			}
		}
		return nil
	}
	return Issues{Issue{Path: ptrPath(p), Code: CodeValueConstraint,
		Message: issueText(CodeValueConstraint, fmt.Sprintf("value not representable under the %s codec", c)),
		Hint:    fmt.Sprintf("%T", v)}}
}
