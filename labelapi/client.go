// Package labelapi fetches label markups from the label service.
package labelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benoitkugler/oklabel/markup"
	"go.uber.org/zap"
)

const printPath = "/custom-labels/print"

const (
	msgDefault = "Failed to print label"
	msgEmpty   = "No markup returned from server."
)

// ServerError is returned when the service answers with a failure,
// or without any markup.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Credentials authenticate the calls to the service.
type Credentials struct {
	Username string
	Password string
}

// Request selects the label to print.
type Request struct {
	LabelName string
	Amount    int
	// APIData is forwarded as is to the service, which uses it
	// to fill the label template.
	APIData map[string]interface{}
}

type printRequest struct {
	Username  string                 `json:"username"`
	Password  string                 `json:"password"`
	LabelName string                 `json:"label_name"`
	Amount    int                    `json:"amount"`
	APIData   map[string]interface{} `json:"apiData"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type Client struct {
	BaseURL     string
	Credentials Credentials
	HTTP        *http.Client

	log *zap.Logger
}

func NewClient(baseURL string, creds Credentials, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Credentials: creds,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
		log:         log,
	}
}

// Fetch posts the request and returns the markups produced by the
// service, which is never empty on success.
func (c *Client) Fetch(ctx context.Context, req Request) ([]*markup.Markup, error) {
	apiData := req.APIData
	if apiData == nil {
		apiData = map[string]interface{}{}
	}
	payload, err := json.Marshal(printRequest{
		Username:  c.Credentials.Username,
		Password:  c.Credentials.Password,
		LabelName: req.LabelName,
		Amount:    req.Amount,
		APIData:   apiData,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.BaseURL + printPath
	c.log.Debug("calling label service", zap.String("url", url), zap.String("label", req.LabelName))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("label service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	var markups []*markup.Markup
	if err := json.Unmarshal(body, &markups); err != nil {
		// an object or any non array answer carries no markup
		var v interface{}
		if json.Unmarshal(body, &v) == nil {
			if _, isArray := v.([]interface{}); !isArray {
				return nil, &ServerError{Message: msgEmpty}
			}
		}
		return nil, fmt.Errorf("decode markups: %w", err)
	}
	if len(markups) == 0 {
		return nil, &ServerError{Message: msgEmpty}
	}
	for _, m := range markups {
		if m == nil {
			return nil, &ServerError{Message: msgEmpty}
		}
	}
	c.log.Debug("markups received", zap.Int("count", len(markups)))
	return markups, nil
}

func errorMessage(body []byte) string {
	var out errorResponse
	if json.Unmarshal(body, &out) == nil {
		if out.Message != "" {
			return out.Message
		}
		if out.Error != "" {
			return out.Error
		}
	}
	return msgDefault
}
