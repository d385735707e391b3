package vision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func newTestService(endpoint, key string) *Service {
	return &Service{
		apiKey:     key,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestAnalyzeImage_Unconfigured(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "")

	out := svc.AnalyzeImage(context.Background(), []byte("img"))
	assert.Equal(t, unavailableReply, out)
	assert.Zero(t, atomic.LoadInt64(&calls), "unconfigured adapter must not make network calls")
}

func TestAnalyzeImage_FormatsDetections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses":[{
			"labelAnnotations":[
				{"description":"Dog","score":0.98},
				{"description":"Mammal","score":0.95},
				{"description":"Pet","score":0.93},
				{"description":"Canidae","score":0.91},
				{"description":"Snout","score":0.88},
				{"description":"Fur","score":0.80}
			],
			"textAnnotations":[{"description":"HELLO"}],
			"localizedObjectAnnotations":[
				{"name":"Dog","score":0.9},
				{"name":"Collar","score":0.7},
				{"name":"Ball","score":0.6},
				{"name":"Grass","score":0.5}
			],
			"faceAnnotations":[{},{}],
			"landmarkAnnotations":[{"description":"Eiffel Tower"}],
			"logoAnnotations":[{"description":"Acme"}]
		}]}`))
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "test-key")

	out := svc.AnalyzeImage(context.Background(), []byte("img"))

	assert.Contains(t, out, "Dog (0.98)")
	assert.Contains(t, out, "Snout (0.88)")
	assert.NotContains(t, out, "Fur", "only the top 5 labels are shown")
	assert.Contains(t, out, "HELLO")
	assert.Contains(t, out, "Faces detected:* 2")
	assert.Contains(t, out, "Eiffel Tower")
	assert.Contains(t, out, "Acme")
	assert.NotContains(t, out, "Grass", "only the top 3 objects are shown")
}

func TestAnalyzeImage_TruncatesLongText(t *testing.T) {
	longText := strings.Repeat("a", 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{"textAnnotations":[{"description":"` + longText + `"}]}]}`))
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "test-key")

	out := svc.AnalyzeImage(context.Background(), []byte("img"))
	assert.Contains(t, out, strings.Repeat("a", maxTextLen)+"...")
	assert.NotContains(t, out, strings.Repeat("a", maxTextLen+1))
}

func TestAnalyzeImage_TextLimitCountsCharacters(t *testing.T) {
	serveText := func(text string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"responses":[{"textAnnotations":[{"description":"` + text + `"}]}]}`))
		}))
	}

	t.Run("multi-byte text under the limit is kept whole", func(t *testing.T) {
		// 150 two-byte characters are 300 bytes yet still under the limit.
		text := strings.Repeat("ж", 150)
		srv := serveText(text)
		defer srv.Close()

		out := newTestService(srv.URL, "test-key").AnalyzeImage(context.Background(), []byte("img"))
		assert.Contains(t, out, text)
		assert.NotContains(t, out, "...")
	})

	t.Run("cut lands on a character boundary", func(t *testing.T) {
		srv := serveText(strings.Repeat("ж", 300))
		defer srv.Close()

		out := newTestService(srv.URL, "test-key").AnalyzeImage(context.Background(), []byte("img"))
		assert.Contains(t, out, strings.Repeat("ж", maxTextLen)+"...")
		assert.True(t, utf8.ValidString(out))
	})
}

func TestAnalyzeImage_SafeSearchThreshold(t *testing.T) {
	tests := []struct {
		name     string
		adult    string
		violence string
		want     []string
		absent   []string
	}{
		{
			name:     "below threshold omitted",
			adult:    "UNLIKELY",
			violence: "VERY_UNLIKELY",
			absent:   []string{"Safety"},
		},
		{
			name:  "possible included",
			adult: "POSSIBLE",
			want:  []string{"Safety", "Adult: Possible"},
		},
		{
			name:     "very likely included",
			violence: "VERY_LIKELY",
			want:     []string{"Violence: Very likely"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"responses":[{
					"labelAnnotations":[{"description":"Scene","score":0.9}],
					"safeSearchAnnotation":{"adult":"` + tt.adult + `","violence":"` + tt.violence + `"}
				}]}`))
			}))
			defer srv.Close()

			svc := newTestService(srv.URL, "test-key")
			out := svc.AnalyzeImage(context.Background(), []byte("img"))

			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			for _, absent := range tt.absent {
				assert.NotContains(t, out, absent)
			}
		})
	}
}

func TestAnalyzeImage_APIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{"error":{"message":"quota exceeded"}}]}`))
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "test-key")

	out := svc.AnalyzeImage(context.Background(), []byte("img"))
	assert.Equal(t, "❌ Vision API error: quota exceeded", out)
}

func TestAnalyzeImage_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "test-key")

	out := svc.AnalyzeImage(context.Background(), []byte("img"))
	assert.Equal(t, failedReply, out)
}

func TestAnalyzeImage_NoFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{}]}`))
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "test-key")

	out := svc.AnalyzeImage(context.Background(), []byte("img"))
	assert.Equal(t, noFeaturesReply, out)
}
