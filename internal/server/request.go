package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/liao/sommelier/internal/chat"
	"github.com/liao/sommelier/internal/wine"
)

const maxBodyBytes = 1 << 20

// ChatRequest /chat/ask 的请求体
type ChatRequest struct {
	Message             string             `json:"message"`
	TasteProfile        *wine.TasteProfile `json:"taste_profile,omitempty"`
	LastRecommendations []wine.Record      `json:"last_recommendations,omitempty"`
}

func (r *ChatRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return NewValidationError("message is required")
	}
	if r.TasteProfile != nil {
		if err := r.TasteProfile.Validate(); err != nil {
			return NewValidationError("taste_profile: " + err.Error())
		}
	}
	for i, w := range r.LastRecommendations {
		if err := w.Validate(); err != nil {
			return NewValidationError(fmt.Sprintf("last_recommendations[%d]: %v", i, err))
		}
	}
	return nil
}

func (r ChatRequest) toChat() chat.Request {
	return chat.Request{
		Message:             r.Message,
		TasteProfile:        r.TasteProfile,
		LastRecommendations: r.LastRecommendations,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		if err == io.EOF {
			return NewValidationError("request body is empty")
		}
		return NewValidationError("invalid JSON body")
	}
	return nil
}

func decodeProfile(w http.ResponseWriter, r *http.Request) (wine.TasteProfile, error) {
	var p wine.TasteProfile
	if err := decodeJSON(w, r, &p); err != nil {
		return p, err
	}
	if err := p.Validate(); err != nil {
		return p, NewValidationError(err.Error())
	}
	return p, nil
}

// requirePreferences 口味测试需要四项偏好都给出
func requirePreferences(p wine.TasteProfile) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value *int
	}{
		{"preferred_sweetness", p.PreferredSweetness},
		{"preferred_acidity", p.PreferredAcidity},
		{"preferred_body", p.PreferredBody},
		{"preferred_tannin", p.PreferredTannin},
	} {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return NewValidationError(strings.Join(missing, ", ") + " required")
	}
	return nil
}
