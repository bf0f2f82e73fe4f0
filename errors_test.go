package dataclassio_test

import (
	"strings"
	"testing"

	dcio "github.com/efroemling/dataclassio"
	"github.com/efroemling/dataclassio/i18n"
)

type localizedDoc struct {
	Count int `json:"count"`
}

func TestIssueMessages_FollowTranslator(t *testing.T) {
	defer i18n.SetLanguage("en")

	_, err := dcio.FromWireValue[localizedDoc](map[string]any{"count": "nope"}, dcio.CodecPlain)
	iss, ok := dcio.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != dcio.CodeInvalidType {
		t.Fatalf("expected a single invalid_type issue, got %v", err)
	}
	en := iss[0].Message
	if en == "" || en == dcio.CodeInvalidType {
		t.Fatalf("expected a translated message, got %q", en)
	}

	i18n.SetLanguage("ja")
	_, err = dcio.FromWireValue[localizedDoc](map[string]any{"count": "nope"}, dcio.CodecPlain)
	iss, ok = dcio.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("expected a single issue, got %v", err)
	}
	if iss[0].Message == en {
		t.Fatalf("message did not follow the language switch: %q", iss[0].Message)
	}
	if !strings.Contains(iss[0].Message, i18n.T(dcio.CodeInvalidType, nil)) {
		t.Fatalf("message should carry the dictionary base, got %q", iss[0].Message)
	}
}
