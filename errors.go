package dataclassio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/efroemling/dataclassio/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Prepare-time schema problems: unsupported field types, storage-name
	// collisions, attribute misconfiguration, invalid enums.
	CodeSchemaError = "schema_error"

	CodeInvalidType          = "invalid_type"
	CodeRequired             = "required"
	CodeUnknownKey           = "unknown_key"
	CodeInvalidEnum          = "invalid_enum"
	CodeValueConstraint      = "value_constraint"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeReservedKeyCollision = "reserved_key_collision"

	// The instance used a lossy enum fallback during decode; encoding it
	// again would silently present the fallback as the true original value.
	CodeEncodeForbidden = "encode_forbidden"

	CodeMaxDepth   = "max_depth"
	CodeParseError = "parse_error"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, offending key names, etc.
	Cause   error  // Optional: underlying error.
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// issueText resolves the localized base message for a code via the i18n
// dictionaries and appends the call-site detail.
func issueText(code, detail string) string {
	base := i18n.T(code, nil)
	if detail == "" {
		return base
	}
	return base + ": " + detail
}

func singleIssue(path, code, detail string) Issues {
	return Issues{Issue{Path: path, Code: code, Message: issueText(code, detail)}}
}

// wrapIssues adapts an error from a nested call into Issues anchored at p.
func wrapIssues(err error, p string) Issues {
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	return Issues{Issue{Path: ptrPath(p), Code: CodeSchemaError, Message: issueText(CodeSchemaError, err.Error()), Cause: err}}
}

// HasCode reports whether err carries at least one Issue with the given code.
func HasCode(err error, code string) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}
