package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mr1hm/civic-eye/internal/exif/exiftest"
	"github.com/mr1hm/civic-eye/internal/geo"
	"github.com/mr1hm/civic-eye/internal/observability"
	"github.com/mr1hm/civic-eye/internal/verification"
)

func previewRequest(t *testing.T, fields map[string]string, photo []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if photo != nil {
		fw, err := mw.CreateFormFile("photo", "photo.jpg")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(photo)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/photos/location-preview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type previewResponse struct {
	Verdict  verification.Verdict `json:"verdict"`
	Metadata previewMetadata      `json:"metadata"`
}

func TestLocationPreview(t *testing.T) {
	captured := time.Date(2025, time.May, 19, 9, 30, 0, 0, time.Local)
	near := geo.Coordinate{Latitude: site.Latitude + 0.0001, Longitude: site.Longitude}
	far := geo.Coordinate{Latitude: site.Latitude + 0.05, Longitude: site.Longitude}
	img := exiftest.Gradient(64, 64, 0)

	tests := []struct {
		name      string
		photo     []byte
		wantTier  verification.Tier
		wantValid bool
		wantGPS   bool
	}{
		{
			name:      "taken on site",
			photo:     exiftest.JPEG(img, exiftest.Options{Location: &near, CapturedAt: captured}),
			wantTier:  verification.TierConfirmed,
			wantValid: true,
			wantGPS:   true,
		},
		{
			name:      "taken across town",
			photo:     exiftest.JPEG(img, exiftest.Options{Location: &far, CapturedAt: captured}),
			wantTier:  verification.TierRejected,
			wantValid: false,
			wantGPS:   true,
		},
		{
			name:      "no gps",
			photo:     exiftest.JPEG(img, exiftest.Options{}),
			wantTier:  verification.TierUnverifiable,
			wantValid: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t, newMockRepo())
			req := previewRequest(t, map[string]string{"latitude": "40.7128", "longitude": "-74.0060"}, tt.photo)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp previewResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp.Verdict.Tier != tt.wantTier || resp.Verdict.IsValid != tt.wantValid {
				t.Errorf("expected %s valid=%v, got %+v", tt.wantTier, tt.wantValid, resp.Verdict)
			}
			if !resp.Verdict.Advisory {
				t.Error("preview verdicts must be advisory")
			}
			if resp.Metadata.HasGPS != tt.wantGPS {
				t.Errorf("expected hasGps=%v, got %v", tt.wantGPS, resp.Metadata.HasGPS)
			}
			if tt.wantGPS && (resp.Metadata.CapturedAt == nil || !resp.Metadata.CapturedAt.Equal(captured)) {
				t.Errorf("expected capture time %v, got %v", captured, resp.Metadata.CapturedAt)
			}
		})
	}
}

func TestLocationPreview_CountsVerdictTier(t *testing.T) {
	env := setupTestRouter(t, newMockRepo())
	env.handler.metrics = observability.NewMetricsForTesting()

	photo := exiftest.JPEG(exiftest.Gradient(32, 32, 0), exiftest.Options{Location: &site})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, previewRequest(t, map[string]string{"latitude": "40.7128", "longitude": "-74.0060"}, photo))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if got := testutil.ToFloat64(env.handler.metrics.PreviewChecks.WithLabelValues("confirmed")); got != 1 {
		t.Errorf("expected 1 confirmed preview counted, got %v", got)
	}
	if got := testutil.ToFloat64(env.handler.metrics.PhotoFetches.WithLabelValues("preview", "success")); got != 0 {
		t.Errorf("uploads must not count as photo fetches, got %v", got)
	}
}

func TestLocationPreview_BadRequests(t *testing.T) {
	photo := exiftest.JPEG(exiftest.Gradient(16, 16, 1), exiftest.Options{})

	tests := []struct {
		name   string
		fields map[string]string
		photo  []byte
		want   int
	}{
		{"missing coordinates", map[string]string{"latitude": "40.7"}, photo, http.StatusBadRequest},
		{"out of range", map[string]string{"latitude": "140", "longitude": "0"}, photo, http.StatusBadRequest},
		{"missing photo", map[string]string{"latitude": "40.7", "longitude": "-74"}, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t, newMockRepo())
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, previewRequest(t, tt.fields, tt.photo))
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestLocationPreview_TooLarge(t *testing.T) {
	env := setupTestRouter(t, newMockRepo())
	env.handler.maxUpload = 64

	photo := exiftest.JPEG(exiftest.Gradient(64, 64, 2), exiftest.Options{})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, previewRequest(t, map[string]string{"latitude": "40.7", "longitude": "-74"}, photo))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", w.Code)
	}
}
