package removebg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"

	"github.com/arkadyvz/visorbot/config"
)

// Service wraps the remove.bg API. Payloads above the API's upload limit are
// re-encoded down to the compression target before upload.
type Service struct {
	apiKey     string
	endpoint   string
	accountURL string
	httpClient *http.Client
}

func NewService() *Service {
	if config.RemoveBgAPIKey == "" {
		logrus.Error("[REMOVEBG] REMOVE_BG_API_KEY or BACKGROUNDBG_API_KEY environment variable is required")
	} else {
		logrus.Info("[REMOVEBG] service initialized")
	}
	return &Service{
		apiKey:     config.RemoveBgAPIKey,
		endpoint:   config.RemoveBgEndpoint,
		accountURL: "https://api.remove.bg/v1.0/account",
		httpClient: &http.Client{
			Timeout: time.Duration(config.HTTPTimeoutSeconds) * time.Second,
		},
	}
}

func (s *Service) Available() bool {
	return s.apiKey != ""
}

// RemoveBackground uploads the image and returns the processed PNG bytes.
func (s *Service) RemoveBackground(ctx context.Context, img []byte) ([]byte, error) {
	if !s.Available() {
		return nil, errors.New("background removal service is not available, check API key configuration")
	}

	if int64(len(img)) > config.RemoveBgMaxUploadBytes {
		img = compressImage(img, config.RemoveBgCompressTarget)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image_file", "image.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(img); err != nil {
		return nil, err
	}
	_ = w.WriteField("size", "auto")
	// PNG output keeps the transparent background.
	_ = w.WriteField("format", "png")
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Api-Key", s.apiKey)

	logrus.Debugf("[REMOVEBG] uploading %s", humanize.Bytes(uint64(len(img))))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.New("background removal service timed out, please try again")
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errors.New("background removal service timed out, please try again")
		}
		return nil, errors.New("background removal service is temporarily unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiErrorFromResponse(resp)
	}

	processed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	logrus.Infof("[REMOVEBG] background removed, received %s", humanize.Bytes(uint64(len(processed))))
	return processed, nil
}

// AccountInfo fetches the remove.bg account document shown on the dashboard.
// Any failure yields nil.
func (s *Service) AccountInfo(ctx context.Context) map[string]any {
	if !s.Available() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(config.RemoveBgAccountTimeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.accountURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logrus.Warnf("[REMOVEBG] account query failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.Warnf("[REMOVEBG] account query status %d", resp.StatusCode)
		return nil
	}

	var account map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil
	}
	return account
}

func apiErrorFromResponse(resp *http.Response) error {
	message := fmt.Sprintf("API error %d", resp.StatusCode)

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var parsed struct {
		Errors []struct {
			Title string `json:"title"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 && parsed.Errors[0].Title != "" {
		message = parsed.Errors[0].Title
	}

	return fmt.Errorf("background removal failed: %s", message)
}

// compressImage flattens the alpha channel, fits the image inside the maximum
// pixel bounds and re-encodes JPEG at decreasing quality until the payload
// fits the target. If the quality floor is reached the smallest attempt is
// returned as best effort.
func compressImage(data []byte, target int64) []byte {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		logrus.Errorf("[REMOVEBG] compress decode: %v", err)
		return data
	}

	bounds := src.Bounds()
	if bounds.Dx() > config.RemoveBgCompressMaxPixels || bounds.Dy() > config.RemoveBgCompressMaxPixels {
		src = imaging.Fit(src, config.RemoveBgCompressMaxPixels, config.RemoveBgCompressMaxPixels, imaging.Lanczos)
	}

	// JPEG has no alpha, composite over white before encoding.
	flattened := imaging.New(src.Bounds().Dx(), src.Bounds().Dy(), color.White)
	flattened = imaging.Overlay(flattened, src, image.Pt(0, 0), 1.0)

	var best []byte
	for quality := config.RemoveBgQualityStart; quality >= config.RemoveBgQualityFloor; quality -= config.RemoveBgQualityStep {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, flattened, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			logrus.Errorf("[REMOVEBG] compress encode at q=%d: %v", quality, err)
			return data
		}
		best = buf.Bytes()
		if int64(len(best)) <= target {
			break
		}
	}

	logrus.Infof("[REMOVEBG] image compressed from %s to %s",
		humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(len(best))))
	return best
}
