package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Client talks to the Telegram Bot API directly. The token is part of the
// request URL, so transport errors are unwrapped before reporting to keep
// it out of logs and admin messages.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: telegramAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool                `json:"ok"`
	ErrorCode   int                 `json:"error_code"`
	Description string              `json:"description"`
	Parameters  *responseParameters `json:"parameters"`
}

type responseParameters struct {
	RetryAfter int `json:"retry_after"`
}

// SendMessage posts one message to a chat. Failures come back as *Error:
// a 429 maps to KindRateLimited carrying the retry_after hint when the
// response includes one, everything else maps to KindFatal.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return &Error{Kind: KindFatal, Message: fmt.Sprintf("failed to encode message: %v", err)}
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindFatal, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error would echo the token-bearing URL.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return &Error{Kind: KindFatal, Message: fmt.Sprintf("telegram request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindFatal, Message: fmt.Sprintf("failed to read telegram response: %v", err)}
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		// Intermediaries can answer 429 with a non-JSON body; the status
		// alone is enough to classify it as retryable.
		if resp.StatusCode == http.StatusTooManyRequests {
			return &Error{Kind: KindRateLimited, Message: fmt.Sprintf("telegram rate limit for chat %s", chatID)}
		}
		return &Error{Kind: KindFatal, Message: fmt.Sprintf("telegram returned status %d with unparsable body", resp.StatusCode)}
	}

	if envelope.OK {
		return nil
	}

	code := envelope.ErrorCode
	if code == 0 {
		code = resp.StatusCode
	}

	if code == http.StatusTooManyRequests {
		rateErr := &Error{
			Kind:    KindRateLimited,
			Message: fmt.Sprintf("telegram rate limit for chat %s", chatID),
		}
		if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
			rateErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return rateErr
	}

	return &Error{Kind: KindFatal, Message: fmt.Sprintf("telegram error %d for chat %s: %s", code, chatID, envelope.Description)}
}
