package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DeepL is the primary provider. Both target languages are requested in
// parallel; either request failing fails the whole call.
type DeepL struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewDeepL(baseURL, apiKey string) *DeepL {
	return &DeepL{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *DeepL) Name() string { return "deepl" }

func (d *DeepL) Translate(ctx context.Context, text, hint string) (Result, error) {
	var (
		wg        sync.WaitGroup
		en, fr    string
		enErr     error
		frErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		en, enErr = d.translateTo(ctx, text, "EN-US")
	}()
	go func() {
		defer wg.Done()
		fr, frErr = d.translateTo(ctx, text, "FR")
	}()
	wg.Wait()

	if enErr != nil {
		return Result{}, fmt.Errorf("deepl EN: %w", enErr)
	}
	if frErr != nil {
		return Result{}, fmt.Errorf("deepl FR: %w", frErr)
	}
	return Result{EN: en, FR: fr}, nil
}

type deeplRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
}

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (d *DeepL) translateTo(ctx context.Context, text, lang string) (string, error) {
	body, err := json.Marshal(deeplRequest{Text: []string{text}, SourceLang: "IT", TargetLang: lang})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v2/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, detail)
	}

	var decoded deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Translations) == 0 {
		return "", nil
	}
	return decoded.Translations[0].Text, nil
}
