package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		data       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "simple map",
			code:       http.StatusOK,
			data:       map[string]any{"key": "value"},
			wantStatus: http.StatusOK,
			wantBody:   `{"key":"value"}`,
		},
		{
			name:       "array",
			code:       http.StatusCreated,
			data:       []string{"a", "b", "c"},
			wantStatus: http.StatusCreated,
			wantBody:   `["a","b","c"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSON(w, tt.code, tt.data)

			if w.Code != tt.wantStatus {
				t.Errorf("WriteJSON() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("WriteJSON() Content-Type = %v, want application/json", ct)
			}

			var got, want any
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			_ = json.Unmarshal([]byte(tt.wantBody), &want)
			gotJSON, _ := json.Marshal(got)
			wantJSON, _ := json.Marshal(want)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("WriteJSON() body = %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, "nope")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"nope"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCheckMethod(t *testing.T) {
	w := httptest.NewRecorder()
	if CheckMethod(w, httptest.NewRequest(http.MethodGet, "/", nil), http.MethodPost) {
		t.Fatal("expected GET to be rejected")
	}
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != http.MethodPost {
		t.Errorf("unexpected response %d, Allow=%q", w.Code, w.Header().Get("Allow"))
	}

	w = httptest.NewRecorder()
	if !CheckMethod(w, httptest.NewRequest(http.MethodPost, "/", nil), http.MethodPost) {
		t.Error("expected POST to pass")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid json", body: `{"channel":"x"}`},
		{name: "invalid json", body: `{invalid}`, wantErr: true},
		{name: "unknown field", body: `{"channel":"x","extra":1}`, wantErr: true},
		{name: "too large", body: `{"channel":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			var v struct {
				Channel string `json:"channel"`
			}
			err := DecodeJSON(httptest.NewRecorder(), req, &v)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBase64RoundTrip(t *testing.T) {
	in := []byte{0, 1, 2, 250}
	out, err := DecodeBase64(EncodeBase64(in))
	if err != nil {
		t.Fatalf("DecodeBase64 failed: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Errorf("got %v, want %v", out, in)
	}
	if _, err := DecodeBase64("***"); err == nil {
		t.Error("expected error for invalid base64")
	}
}
