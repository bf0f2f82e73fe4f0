package dataclassio_test

import (
	"testing"

	dcio "github.com/efroemling/dataclassio"
)

type fpProfile struct {
	DisplayName string `json:"display_name"`
	Age         int    `json:"age"`
}

type fpAccount struct {
	ID      string    `json:"id"`
	Profile fpProfile `json:"profile"`
	Score   float64   `json:"score"`
}

func TestFieldPath_TopLevel(t *testing.T) {
	got := dcio.FieldPath(func(a *fpAccount) *string { return &a.ID })
	if got != "id" {
		t.Fatalf("expected \"id\", got %q", got)
	}
}

func TestFieldPath_Nested(t *testing.T) {
	got := dcio.FieldPath(func(a *fpAccount) *string { return &a.Profile.DisplayName })
	if got != "profile.display_name" {
		t.Fatalf("expected \"profile.display_name\", got %q", got)
	}
}

func TestFieldPath_FirstFieldOfNestedStruct(t *testing.T) {
	// Profile and its first field share an address; type matching must keep
	// them apart.
	got := dcio.FieldPath(func(a *fpAccount) *fpProfile { return &a.Profile })
	if got != "profile" {
		t.Fatalf("expected \"profile\", got %q", got)
	}
}

func TestFieldPath_UsesAttrStorageNames(t *testing.T) {
	got := dcio.FieldPath(func(s *storageViaAttrs) *string { return &s.Display })
	if got != "display_name" {
		t.Fatalf("expected attrs-driven storage name, got %q", got)
	}
}

func TestFieldPath_PanicsOnForeignPointer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for selector ignoring its argument")
		}
	}()
	var x string
	_ = dcio.FieldPath(func(a *fpAccount) *string { return &x })
}
