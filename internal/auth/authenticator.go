// Package auth validates private-channel subscription requests against the
// application's authentication endpoint.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avetrov/channelgate/internal/core"
)

// maxResponseBytes bounds how much of the authority's response is read.
const maxResponseBytes = 1 << 20

// authResponse is the authority's success body. Anything else in the body
// is ignored.
type authResponse struct {
	ChannelData string `json:"channel_data"`
}

// authRejection is the authority's optional failure body.
type authRejection struct {
	Reason string `json:"reason"`
}

// HTTPAuthenticator implements core.Authenticator over a single POST to the
// configured authority endpoint. There are no retries: each subscribe
// attempt performs exactly one authentication call, and the client's own
// timeout bounds it.
type HTTPAuthenticator struct {
	client   *http.Client
	endpoint string
	log      *zerolog.Logger
}

// New builds an authenticator targeting host+endpoint.
func New(client *http.Client, host, endpoint string, logger *zerolog.Logger) *HTTPAuthenticator {
	return &HTTPAuthenticator{
		client:   client,
		endpoint: host + endpoint,
		log:      logger,
	}
}

// Authenticate submits the connection identity, channel name and the
// client-supplied token to the authority. Client-supplied headers ride along
// so the application can see its own cookies and CSRF tokens. A non-2xx
// response or a transport failure comes back as *core.AuthError.
func (a *HTTPAuthenticator) Authenticate(ctx context.Context, conn core.Conn, req core.SubscribeRequest) (core.AuthResult, error) {
	form := url.Values{
		"socket_id":    {conn.ID},
		"channel_name": {req.Channel},
	}
	if req.Auth != "" {
		form.Set("auth", req.Auth)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return core.AuthResult{}, fmt.Errorf("build auth request: %w", err)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		a.log.Warn().Err(err).Str("channel", req.Channel).Msg("authentication authority unreachable")
		return core.AuthResult{}, &core.AuthError{
			Reason: fmt.Sprintf("authentication authority unreachable: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return core.AuthResult{}, &core.AuthError{
			Reason: fmt.Sprintf("read authority response: %v", err),
			Status: resp.StatusCode,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.AuthResult{}, &core.AuthError{
			Reason: rejectionReason(body, resp.StatusCode),
			Status: resp.StatusCode,
		}
	}

	// An empty or non-JSON success body is still a success; channel_data is
	// optional.
	var parsed authResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			a.log.Debug().Err(err).Str("channel", req.Channel).Msg("authority response not JSON, channel_data ignored")
		}
	}
	return core.AuthResult{ChannelData: parsed.ChannelData}, nil
}

func rejectionReason(body []byte, status int) string {
	var rej authRejection
	if err := json.Unmarshal(body, &rej); err == nil && rej.Reason != "" {
		return rej.Reason
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 256 {
		return text
	}
	return http.StatusText(status)
}
