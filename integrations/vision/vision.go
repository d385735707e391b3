package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arkadyvz/visorbot/config"
)

const (
	unavailableReply = "❌ Google Vision service is not available. Please check API configuration."
	failedReply      = "❌ Error analyzing image. Please try again."
	noFeaturesReply  = "No significant features detected in this image."

	maxLabels    = 5
	maxObjects   = 3
	maxLandmarks = 3
	maxLogos     = 3
	maxTextLen   = 200
)

// likelihoodOrdinal maps the safe-search likelihood enum onto its 1..5 scale.
// Categories below POSSIBLE (3) are suppressed from the formatted output.
var likelihoodOrdinal = map[string]int{
	"VERY_UNLIKELY": 1,
	"UNLIKELY":      2,
	"POSSIBLE":      3,
	"LIKELY":        4,
	"VERY_LIKELY":   5,
}

var likelihoodLabel = map[string]string{
	"VERY_UNLIKELY": "Very unlikely",
	"UNLIKELY":      "Unlikely",
	"POSSIBLE":      "Possible",
	"LIKELY":        "Likely",
	"VERY_LIKELY":   "Very likely",
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
}

type imageResponse struct {
	LabelAnnotations           []entityAnnotation `json:"labelAnnotations"`
	TextAnnotations            []entityAnnotation `json:"textAnnotations"`
	LocalizedObjectAnnotations []objectAnnotation `json:"localizedObjectAnnotations"`
	FaceAnnotations            []json.RawMessage  `json:"faceAnnotations"`
	LandmarkAnnotations        []entityAnnotation `json:"landmarkAnnotations"`
	LogoAnnotations            []entityAnnotation `json:"logoAnnotations"`
	SafeSearchAnnotation       *safeSearch        `json:"safeSearchAnnotation"`
	Error                      *apiError          `json:"error"`
}

type entityAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

type objectAnnotation struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type safeSearch struct {
	Adult    string `json:"adult"`
	Violence string `json:"violence"`
}

type apiError struct {
	Message string `json:"message"`
}

// Service wraps the Cloud Vision images:annotate endpoint. One call requests
// every detection feature; the response is folded into a multi-line summary.
type Service struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewService() *Service {
	if config.VisionAPIKey == "" {
		logrus.Error("[VISION] GOOGLE_VISION_API_KEY environment variable is required")
	} else {
		logrus.Info("[VISION] service initialized")
	}
	return &Service{
		apiKey:   config.VisionAPIKey,
		endpoint: config.VisionEndpoint,
		httpClient: &http.Client{
			Timeout: time.Duration(config.HTTPTimeoutSeconds) * time.Second,
		},
	}
}

func (s *Service) Available() bool {
	return s.apiKey != ""
}

// AnalyzeImage annotates the image and formats the detections into the reply
// section shown to the user.
func (s *Service) AnalyzeImage(ctx context.Context, image []byte) string {
	if !s.Available() {
		return unavailableReply
	}

	resp, err := s.annotate(ctx, image)
	if err != nil {
		logrus.Errorf("[VISION] annotate: %v", err)
		return failedReply
	}
	if resp.Error != nil && resp.Error.Message != "" {
		logrus.Errorf("[VISION] API error: %s", resp.Error.Message)
		return fmt.Sprintf("❌ Vision API error: %s", resp.Error.Message)
	}

	return formatAnnotations(resp)
}

func (s *Service) annotate(ctx context.Context, image []byte) (*imageResponse, error) {
	payload := annotateRequest{
		Requests: []imageRequest{{
			Image: imageContent{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []feature{
				{Type: "LABEL_DETECTION", MaxResults: 10},
				{Type: "TEXT_DETECTION", MaxResults: 5},
				{Type: "OBJECT_LOCALIZATION", MaxResults: 10},
				{Type: "FACE_DETECTION", MaxResults: 5},
				{Type: "LANDMARK_DETECTION", MaxResults: 5},
				{Type: "LOGO_DETECTION", MaxResults: 5},
				{Type: "SAFE_SEARCH_DETECTION"},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"?key="+s.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(data))
	}

	var parsed annotateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Responses) == 0 {
		return nil, fmt.Errorf("empty annotate response")
	}
	return &parsed.Responses[0], nil
}

func formatAnnotations(r *imageResponse) string {
	var parts []string

	if len(r.LabelAnnotations) > 0 {
		labels := make([]string, 0, maxLabels)
		for _, l := range r.LabelAnnotations {
			labels = append(labels, fmt.Sprintf("%s (%.2f)", l.Description, l.Score))
			if len(labels) == maxLabels {
				break
			}
		}
		parts = append(parts, "🏷️ *Labels:* "+strings.Join(labels, ", "))
	}

	if len(r.TextAnnotations) > 0 {
		text := strings.TrimSpace(r.TextAnnotations[0].Description)
		if text != "" {
			// Character count, not bytes. A byte cut could split a rune.
			if runes := []rune(text); len(runes) > maxTextLen {
				text = string(runes[:maxTextLen]) + "..."
			}
			parts = append(parts, "📝 *Text found:* "+text)
		}
	}

	if len(r.LocalizedObjectAnnotations) > 0 {
		objects := make([]string, 0, maxObjects)
		for _, o := range r.LocalizedObjectAnnotations {
			objects = append(objects, fmt.Sprintf("%s (%.2f)", o.Name, o.Score))
			if len(objects) == maxObjects {
				break
			}
		}
		parts = append(parts, "🎯 *Objects:* "+strings.Join(objects, ", "))
	}

	if n := len(r.FaceAnnotations); n > 0 {
		parts = append(parts, fmt.Sprintf("👥 *Faces detected:* %d", n))
	}

	if len(r.LandmarkAnnotations) > 0 {
		landmarks := make([]string, 0, maxLandmarks)
		for _, l := range r.LandmarkAnnotations {
			landmarks = append(landmarks, l.Description)
			if len(landmarks) == maxLandmarks {
				break
			}
		}
		parts = append(parts, "🏛️ *Landmarks:* "+strings.Join(landmarks, ", "))
	}

	if len(r.LogoAnnotations) > 0 {
		logos := make([]string, 0, maxLogos)
		for _, l := range r.LogoAnnotations {
			logos = append(logos, l.Description)
			if len(logos) == maxLogos {
				break
			}
		}
		parts = append(parts, "🏢 *Logos:* "+strings.Join(logos, ", "))
	}

	if r.SafeSearchAnnotation != nil {
		var safety []string
		if likelihoodOrdinal[r.SafeSearchAnnotation.Adult] >= 3 {
			safety = append(safety, "Adult: "+likelihoodLabel[r.SafeSearchAnnotation.Adult])
		}
		if likelihoodOrdinal[r.SafeSearchAnnotation.Violence] >= 3 {
			safety = append(safety, "Violence: "+likelihoodLabel[r.SafeSearchAnnotation.Violence])
		}
		if len(safety) > 0 {
			parts = append(parts, "⚠️ *Safety:* "+strings.Join(safety, ", "))
		}
	}

	if len(parts) == 0 {
		return noFeaturesReply
	}
	return strings.Join(parts, "\n")
}
