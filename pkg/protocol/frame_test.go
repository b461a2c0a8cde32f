package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Frame
		wantErr string
	}{
		{
			name:  "publish with base64 data",
			input: `{"op":"publish","channel":"news","data":"aGVsbG8="}`,
			want:  Frame{Op: OpPublish, Channel: "news", Data: []byte("hello")},
		},
		{
			name:  "subscribe",
			input: `{"op":"subscribe","channel":"news"}`,
			want:  Frame{Op: OpSubscribe, Channel: "news"},
		},
		{
			name:  "error without channel",
			input: `{"op":"error","error":"boom"}`,
			want:  Frame{Op: OpError, Error: "boom"},
		},
		{name: "malformed json", input: `{"op":`, wantErr: "invalid frame"},
		{name: "unknown op", input: `{"op":"shout","channel":"x"}`, wantErr: "unknown op"},
		{name: "subscribe without channel", input: `{"op":"subscribe"}`, wantErr: "requires a channel"},
		{name: "publish without data", input: `{"op":"publish","channel":"x"}`, wantErr: "requires data"},
		{name: "bad base64", input: `{"op":"publish","channel":"x","data":"***"}`, wantErr: "invalid frame"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Op != tt.want.Op || got.Channel != tt.want.Channel || string(got.Data) != string(tt.want.Data) || got.Error != tt.want.Error {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestEncode_DataIsBase64(t *testing.T) {
	b, err := Encode(Frame{Op: OpMessage, Channel: "news", Data: []byte("hello")})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(b), `"data":"aGVsbG8="`) {
		t.Errorf("expected base64 data in %s", b)
	}
}

func TestErrorFrame(t *testing.T) {
	f := ErrorFrame("news", errors.New("denied"))
	if f.Op != OpError || f.Channel != "news" || f.Error != "denied" {
		t.Errorf("unexpected frame %+v", f)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("error frame should validate, got %v", err)
	}
}
