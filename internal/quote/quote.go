// Package quote submits quote requests to the third-party form endpoint.
package quote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ErrSubmitFailed is the localized inline error for a rejected or unreachable
// form endpoint.
var ErrSubmitFailed = errors.New("det uppstod ett fel när formuläret skickades, vänligen försök igen")

// ValidationError carries the localized message for the first failing field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Request is one quote submission.
type Request struct {
	Name     string   `validate:"required"`
	Email    string   `validate:"required,email"`
	Phone    string   `validate:"omitempty"`
	Message  string   `validate:"omitempty"`
	Services []string `validate:"required,min=1,dive,required"`
}

// Client posts quote requests with Accept: application/json. Any 2xx counts as
// success; there are no retries.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
	Logger     zerolog.Logger

	validate *validator.Validate
}

// New builds a quote client.
func New(endpoint string, logger zerolog.Logger) *Client {
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
		validate:   validator.New(),
	}
}

// Submit validates and posts the request as a multipart form.
func (c *Client) Submit(ctx context.Context, req Request) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := c.validation(req); err != nil {
		return err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := map[string]string{
		"name":             req.Name,
		"email":            req.Email,
		"phone":            req.Phone,
		"message":          req.Message,
		"selected_service": strings.Join(req.Services, ", "),
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return fmt.Errorf("quote: write field %s: %w", key, err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("quote: close form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, &body)
	if err != nil {
		return fmt.Errorf("quote: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		c.Logger.Error().Err(err).Msg("quote submission failed")
		return ErrSubmitFailed
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Logger.Error().Int("status", resp.StatusCode).Msg("quote submission rejected")
		return ErrSubmitFailed
	}
	return nil
}

func (c *Client) validation(req Request) error {
	v := c.validate
	if v == nil {
		v = validator.New()
	}
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return localize(fieldErrs[0])
	}
	return err
}

func localize(fe validator.FieldError) *ValidationError {
	switch fe.Field() {
	case "Name":
		return &ValidationError{Field: "name", Message: "vänligen fyll i ditt namn"}
	case "Email":
		return &ValidationError{Field: "email", Message: "vänligen fyll i en giltig e-postadress"}
	case "Services":
		return &ValidationError{Field: "services", Message: "vänligen välj minst en tjänst"}
	default:
		return &ValidationError{Field: fe.Field(), Message: "ogiltigt fält: " + fe.Field()}
	}
}
