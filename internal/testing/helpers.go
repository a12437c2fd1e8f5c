package testing

import (
	"testing"

	"github.com/dl-alexandre/gdmirror/internal/types"
	"github.com/dl-alexandre/gdmirror/internal/utils"
)

// TestFile creates a regular file listing entry
func TestFile(id, name string) types.RemoteItem {
	return types.RemoteItem{ID: id, Name: name, Kind: types.KindLeaf, MimeType: "application/octet-stream"}
}

// TestFolder creates a folder listing entry
func TestFolder(id, name string) types.RemoteItem {
	return types.RemoteItem{ID: id, Name: name, Kind: types.KindContainer, MimeType: utils.MimeTypeFolder}
}

// TestDocument creates a native document listing entry
func TestDocument(id, name string) types.RemoteItem {
	return types.RemoteItem{ID: id, Name: name, Kind: types.KindRichDocument, MimeType: utils.MimeTypeDocument}
}

// AssertNoError is a helper to fail the test if error is not nil
func AssertNoError(t *testing.T, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err != nil {
		if len(msgAndArgs) > 0 {
			t.Fatalf("%v: %v", msgAndArgs[0], err)
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

// AssertError is a helper to fail the test if error is nil
func AssertError(t *testing.T, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err == nil {
		if len(msgAndArgs) > 0 {
			t.Fatalf("%v: expected error but got nil", msgAndArgs[0])
		} else {
			t.Fatal("expected error but got nil")
		}
	}
}

// AssertEqual is a helper to fail the test if two values are not equal
func AssertEqual(t *testing.T, got, want interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if got != want {
		if len(msgAndArgs) > 0 {
			t.Fatalf("%v: got %v, want %v", msgAndArgs[0], got, want)
		} else {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
