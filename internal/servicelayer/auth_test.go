package servicelayer

import (
	"encoding/base64"
	"testing"
)

func TestBasicToken(t *testing.T) {
	token := BasicToken("__QAS", "manager", "s3cret")

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not valid base64: %v", err)
	}

	// The server matches this material byte for byte: fixed key order,
	// no whitespace, raw password after the colon.
	want := `{"CompanyDB":"__QAS","UserName":"manager"}:s3cret`
	if string(raw) != want {
		t.Errorf("token material = %q, want %q", raw, want)
	}
}

func TestBasicTokenEscaping(t *testing.T) {
	token := BasicToken("DB", `us"er`, "p:ss")
	raw, _ := base64.StdEncoding.DecodeString(token)
	want := `{"CompanyDB":"DB","UserName":"us\"er"}:p:ss`
	if string(raw) != want {
		t.Errorf("token material = %q, want %q", raw, want)
	}
}

func TestClassifyLoginError(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    LoginFailure
	}{
		{"unknown user", "Invalid username or account not found", LoginInvalidUsername},
		{"user keyword", "No such user", LoginInvalidUsername},
		{"bad password", "Incorrect password supplied", LoginInvalidPassword},
		{"locked", "Account locked after failed attempts", LoginAccountLocked},
		{"unclassified", "Company database is offline", LoginFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := ClassifyLoginError(tt.message)
			if got != tt.want {
				t.Errorf("ClassifyLoginError(%q) = %v, want %v", tt.message, got, tt.want)
			}
			if msg == "" {
				t.Error("expected a non-empty operator message")
			}
			if got == LoginFailed && msg != tt.message {
				t.Errorf("unclassified error should pass the server message through, got %q", msg)
			}
		})
	}
}
