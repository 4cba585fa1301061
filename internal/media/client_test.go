package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storyline/internal/timeline"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "image", want: KindImage},
		{in: " Video ", want: KindVideo},
		{in: "AUDIO", want: KindAudio},
		{in: "pdf", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClient_Upload(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		want       []string
		wantErr    bool
	}{
		{
			name: "successful upload",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/upload" {
					t.Errorf("expected /upload, got %s", r.URL.Path)
				}
				if r.FormValue("kind") != "image" {
					t.Errorf("kind = %q, want image", r.FormValue("kind"))
				}
				f, hdr, err := r.FormFile("file")
				if err != nil {
					t.Errorf("FormFile() error = %v", err)
					return
				}
				defer f.Close()
				data, _ := io.ReadAll(f)
				if hdr.Filename != "pier.png" || string(data) != "png-bytes" {
					t.Errorf("file = %s %q", hdr.Filename, data)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"refs":["media/123"]}`))
			},
			want: []string{"media/123"},
		},
		{
			name: "server error",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr: true,
		},
		{
			name: "no references",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"refs":[]}`))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			}))
			defer server.Close()

			client := NewClient(server.URL+"/", time.Second)
			got, err := client.Upload(context.Background(), KindImage, "pier.png", strings.NewReader("png-bytes"))

			if tt.wantErr {
				if err == nil {
					t.Fatal("Upload() expected error, got nil")
				}
				if !timeline.IsRetryable(err) {
					t.Errorf("Upload() error %v should be retryable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Upload() unexpected error: %v", err)
			}
			if len(got) != 1 || got[0] != tt.want[0] {
				t.Errorf("Upload() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_UploadUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := client.Upload(context.Background(), KindAudio, "a.mp3", strings.NewReader("x"))

	var netErr *timeline.NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("Upload() error = %v, want *timeline.NetworkError", err)
	}
}
