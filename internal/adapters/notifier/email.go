package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
)

// EmailNotifier delivers messages through the external email service. The
// call is a single POST; retries and timeouts are the caller's concern. The
// limiter keeps a large dispatch cycle from hammering the service.
type EmailNotifier struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

var _ domain.Notifier = (*EmailNotifier)(nil)

type sendEmailRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

func NewEmailNotifier(baseURL string, ratePerSec float64, burst int) *EmailNotifier {
	return &EmailNotifier{
		baseURL: baseURL,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

func (n *EmailNotifier) Send(ctx context.Context, email, message string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(sendEmailRequest{Email: email, Message: message})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/send-email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}
	return nil
}
