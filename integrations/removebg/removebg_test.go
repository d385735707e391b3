package removebg

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadyvz/visorbot/config"
)

func newTestService(endpoint, key string) *Service {
	return &Service{
		apiKey:     key,
		endpoint:   endpoint,
		accountURL: endpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// noisyImagePNG builds a PNG of random noise, which compresses poorly and
// reliably exceeds the upload limit at the given dimensions.
func noisyImagePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = byte(rng.Intn(256))
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestRemoveBackground_Unconfigured(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "")

	_, err := svc.RemoveBackground(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestRemoveBackground_Success(t *testing.T) {
	processed := []byte("processed-png-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("X-Api-Key"))

		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "auto", r.FormValue("size"))
		assert.Equal(t, "png", r.FormValue("format"))

		_, _, err := r.FormFile("image_file")
		require.NoError(t, err)

		_, _ = w.Write(processed)
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "secret-key")

	out, err := svc.RemoveBackground(context.Background(), []byte("small-image"))
	require.NoError(t, err)
	assert.Equal(t, processed, out)
}

func TestRemoveBackground_APIErrorTitleSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"errors":[{"title":"Insufficient credits"}]}`))
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "secret-key")

	_, err := svc.RemoveBackground(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient credits")
}

func TestRemoveBackground_APIErrorWithoutTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "secret-key")

	_, err := svc.RemoveBackground(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 400")
}

func TestCompressImage_OversizedPayload(t *testing.T) {
	original := noisyImagePNG(t, 3000, 2500)
	require.Greater(t, int64(len(original)), config.RemoveBgMaxUploadBytes,
		"fixture must exceed the upload limit")

	compressed := compressImage(original, config.RemoveBgCompressTarget)
	assert.LessOrEqual(t, int64(len(compressed)), config.RemoveBgCompressTarget)

	img, err := imaging.Decode(bytes.NewReader(compressed))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), config.RemoveBgCompressMaxPixels)
	assert.LessOrEqual(t, img.Bounds().Dy(), config.RemoveBgCompressMaxPixels)
}

func TestCompressImage_FlattensAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	// fully transparent source
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))

	compressed := compressImage(buf.Bytes(), config.RemoveBgCompressTarget)

	decoded, err := imaging.Decode(bytes.NewReader(compressed))
	require.NoError(t, err)

	r, g, b, _ := decoded.At(50, 50).RGBA()
	white := color.White
	wr, wg, wb, _ := white.RGBA()
	assert.InDelta(t, wr, r, 2000)
	assert.InDelta(t, wg, g, 2000)
	assert.InDelta(t, wb, b, 2000)
}

func TestCompressImage_UndecodableInputReturnedAsIs(t *testing.T) {
	data := []byte("definitely not an image")
	assert.Equal(t, data, compressImage(data, config.RemoveBgCompressTarget))
}

func TestAccountInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(`{"data":{"attributes":{"credits":{"total":42}}}}`))
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, "secret-key")

	account := svc.AccountInfo(context.Background())
	require.NotNil(t, account)
	assert.Contains(t, account, "data")
}

func TestAccountInfo_UnavailableOrFailing(t *testing.T) {
	svc := newTestService("http://127.0.0.1:0", "")
	assert.Nil(t, svc.AccountInfo(context.Background()))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	svc = newTestService(srv.URL, "secret-key")
	assert.Nil(t, svc.AccountInfo(context.Background()))
}
