package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// HolidayService asks a public-holidays API what is being celebrated.
type HolidayService struct {
	BaseURL string
	Country string
	Client  *http.Client
}

func NewHolidayService(baseURL, country string) *HolidayService {
	if country == "" {
		country = "US"
	}
	return &HolidayService{BaseURL: baseURL, Country: country, Client: newHTTPClient()}
}

type holiday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

func (s *HolidayService) Today(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/NextPublicHolidays/%s", strings.TrimRight(s.BaseURL, "/"), s.Country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("holiday api: status %d", resp.StatusCode)
	}

	var holidays []holiday
	if err := json.NewDecoder(resp.Body).Decode(&holidays); err != nil {
		return "", err
	}
	if len(holidays) == 0 {
		return "No upcoming holidays found. Every stream day is a holiday anyway.", nil
	}

	next := holidays[0]
	today := time.Now().Format("2006-01-02")
	name := next.LocalName
	if name == "" {
		name = next.Name
	}
	if next.Date == today {
		return fmt.Sprintf("Today is %s!", name), nil
	}
	return fmt.Sprintf("No holiday today. The next one is %s on %s.", name, next.Date), nil
}

// TranslateService posts to a LibreTranslate-shaped endpoint.
type TranslateService struct {
	URL    string
	Client *http.Client
}

func NewTranslateService(url string) *TranslateService {
	return &TranslateService{URL: url, Client: newHTTPClient()}
}

type translateReq struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResp struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

func (s *TranslateService) Translate(ctx context.Context, lang, text string) (string, error) {
	body, err := json.Marshal(translateReq{Q: text, Source: "auto", Target: lang, Format: "text"})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate api: status %d", resp.StatusCode)
	}

	var decoded translateResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("translate api: %s", decoded.Error)
	}
	if strings.TrimSpace(decoded.TranslatedText) == "" {
		return "", fmt.Errorf("translate api: empty translation")
	}
	return decoded.TranslatedText, nil
}

// Speakers lets the viewer-stats handler tell lurkers from chatters.
type Speakers interface {
	KnownHandles(ctx context.Context) (map[string]bool, error)
}

// ViewerStatsService reads the channel's chatters endpoint.
type ViewerStatsService struct {
	URL      string
	Speakers Speakers
	Client   *http.Client
}

func NewViewerStatsService(url string, speakers Speakers) *ViewerStatsService {
	return &ViewerStatsService{URL: url, Speakers: speakers, Client: newHTTPClient()}
}

type chattersResp struct {
	ChatterCount int `json:"chatter_count"`
	Chatters     struct {
		Broadcaster []string `json:"broadcaster"`
		Moderators  []string `json:"moderators"`
		VIPs        []string `json:"vips"`
		Viewers     []string `json:"viewers"`
	} `json:"chatters"`
}

func (s *ViewerStatsService) Report(ctx context.Context, kind string) (string, error) {
	if s.URL == "" {
		return "", &ValidationError{Msg: "Viewer stats are not configured on this channel."}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chatters api: status %d", resp.StatusCode)
	}

	var decoded chattersResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}

	switch kind {
	case "viewers":
		return fmt.Sprintf("%d people are hanging out in chat right now.", decoded.ChatterCount), nil
	case "stats":
		return fmt.Sprintf("%d chatters: %d moderators, %d vips, %d viewers.",
			decoded.ChatterCount,
			len(decoded.Chatters.Moderators),
			len(decoded.Chatters.VIPs),
			len(decoded.Chatters.Viewers)), nil
	case "silent":
		spoken, err := s.Speakers.KnownHandles(ctx)
		if err != nil {
			return "", err
		}
		silent := 0
		for _, name := range decoded.Chatters.Viewers {
			if !spoken[strings.ToLower(name)] {
				silent++
			}
		}
		return fmt.Sprintf("%d lurkers are watching in silence.", silent), nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("Unknown stats command %q.", kind)}
}
