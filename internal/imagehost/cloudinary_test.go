package imagehost

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("upload_preset"); got != "unsigned-test" {
			t.Errorf("expected upload_preset unsigned-test, got %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected file part: %v", err)
		}
		w.Write([]byte(`{"secure_url":"https://cdn.example/img.png","public_id":"img","width":10,"height":20,"bytes":123}`))
	}))
	defer srv.Close()

	c := NewClient("democloud", "unsigned-test")
	c.baseURL = srv.URL
	c.httpClient = srv.Client()

	res, err := c.Upload(context.Background(), "img.png", strings.NewReader("fake-image-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.ImageURL() != "https://cdn.example/img.png" {
		t.Errorf("unexpected url %q", res.ImageURL())
	}
	if res.Width != 10 || res.Height != 20 || res.Bytes != 123 {
		t.Errorf("unexpected metadata: %+v", res)
	}
}

func TestUploadFallsBackToPlainURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url":"http://cdn.example/img.png"}`))
	}))
	defer srv.Close()

	c := NewClient("democloud", "unsigned-test")
	c.baseURL = srv.URL
	c.httpClient = srv.Client()

	res, err := c.Upload(context.Background(), "img.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.ImageURL() != "http://cdn.example/img.png" {
		t.Errorf("expected plain url fallback, got %q", res.ImageURL())
	}
}

func TestUploadNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid preset", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("democloud", "unsigned-test")
	c.baseURL = srv.URL
	c.httpClient = srv.Client()

	if _, err := c.Upload(context.Background(), "img.png", strings.NewReader("x")); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestUploadUnconfigured(t *testing.T) {
	c := NewClient("", "")
	if _, err := c.Upload(context.Background(), "img.png", strings.NewReader("x")); err == nil {
		t.Fatal("expected configuration error when cloud name is empty")
	}
}
