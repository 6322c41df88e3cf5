package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Luksow29/classic-offset-backend/pkg/config"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
)

var (
	errEndpointRequired = errors.New("push endpoint is required")
	errSecretRequired   = errors.New("push token secret is required")
)

// Message is the outbound push payload.
type Message struct {
	UserID   uuid.UUID   `json:"userId"`
	Title    string      `json:"title"`
	Body     string      `json:"body"`
	Category string      `json:"category"`
	Data     MessageData `json:"data"`
}

// MessageData carries the deep link and the in-app notification id.
type MessageData struct {
	URL            string    `json:"url,omitempty"`
	NotificationID uuid.UUID `json:"notificationId"`
}

// Client posts push messages to the external delivery endpoint with a
// short-lived bearer token. Delivery is best-effort: callers log failures and
// never retry.
type Client struct {
	endpoint string
	cfg      config.PushConfig
	http     *http.Client
	logg     *logger.Logger
	now      func() time.Time
}

// NewClient validates the push configuration and builds a client.
func NewClient(cfg config.PushConfig, logg *logger.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errEndpointRequired
	}
	if strings.TrimSpace(cfg.TokenSecret) == "" {
		return nil, errSecretRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		cfg:      cfg,
		http:     &http.Client{Timeout: timeout},
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Send posts one push message. A non-2xx response or transport failure wraps
// as CodePushDelivery so the dispatcher boundary can log and drop it.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePushDelivery, err, "encode push payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePushDelivery, err, "build push request")
	}

	token, err := c.sessionToken(msg.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePushDelivery, err, "mint push token")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePushDelivery, err, "push endpoint unreachable")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodePushDelivery, fmt.Sprintf("push endpoint returned %d", resp.StatusCode))
	}
	return nil
}

// sessionToken mints a short-lived HS256 bearer scoped to the target user.
func (c *Client) sessionToken(userID uuid.UUID) (string, error) {
	ttl := c.cfg.TokenTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.cfg.TokenIssuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.TokenSecret))
}
