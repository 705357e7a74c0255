// Package filter implements a profanity check for usernames backed by the
// Purgomalum API with a local fallback word list.

package filter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const purgomalumURL = "https://www.purgomalum.com/service/containsprofanity"

const apiTimeout = 2 * time.Second

// fallback list used when the API is unreachable, only the most egregious
// words
var fallbackBlockedWords = []string{
	"fuck", "shit", "bitch", "nigger", "cunt", "asshole", "bastard",
}

// Filter defines attributes of a struct available to its methods.
type Filter struct {
	mu          sync.Mutex
	client      *resty.Client
	log         *zerolog.Logger
	customWords []string
	apiURL      string
	disableAPI  bool
}

// InitFilter initializes a profanity filter with an optional custom blocked
// word list.
func InitFilter(log *zerolog.Logger, customWords []string) *Filter {
	client := resty.New().SetTimeout(apiTimeout)
	log.Info().Msg("profanity filter client initialized")
	return &Filter{client: client, log: log, customWords: customWords, apiURL: purgomalumURL}
}

// SetOffline toggles the online API lookup, leaving only the local word
// lists in effect.
func (f *Filter) SetOffline(offline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disableAPI = offline
}

func (f *Filter) apiDisabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disableAPI
}

// ContainsProfanity reports whether the text contains offensive language.
// The custom list is consulted first, then the online API, then the local
// fallback list when the API is unreachable.
func (f *Filter) ContainsProfanity(ctx context.Context, text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, word := range f.customWords {
		if strings.Contains(lowered, strings.ToLower(word)) {
			return true
		}
	}
	if !f.apiDisabled() {
		response, err := f.client.R().SetContext(ctx).SetQueryParam("text", text).Get(f.apiURL)
		if err != nil {
			f.log.Warn().Err(err).Msg("profanity API is unreachable, using fallback word list")
		} else if response.StatusCode() == 200 {
			return strings.TrimSpace(strings.ToLower(string(response.Body()))) == "true"
		} else {
			f.log.Warn().Msg(fmt.Sprintf("profanity API returned status %d, using fallback word list", response.StatusCode()))
		}
	}
	for _, word := range fallbackBlockedWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
