package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// RoleCashier is the only role allowed to drive the sale surface.
const RoleCashier = "KASIR"

var ErrRoleNotAllowed = errors.New("account role may not operate the terminal")

// Client performs the unauthenticated login call and populates a Session.
// It deliberately does not go through backend.Client, which requires a token.
type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
	ActorID  int64  `json:"idPegawai"`
}

func (c *Client) Login(ctx context.Context, session *Session, username, password string) error {
	buf, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
			return fmt.Errorf("login rejected: %s", payload.Message)
		}
		return fmt.Errorf("login rejected: status %d", resp.StatusCode)
	}

	var res loginResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if res.Role != "" && res.Role != RoleCashier {
		return fmt.Errorf("%w: %s", ErrRoleNotAllowed, res.Role)
	}

	session.set(res.Token, res.Username, res.Role, res.ActorID)
	c.log.Info("logged in", "username", res.Username, "actor_id", res.ActorID)
	return nil
}
