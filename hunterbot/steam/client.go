package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru"
)

const (
	defaultAPIBase     = "https://api.steampowered.com"
	defaultHTTPTimeout = 10 * time.Second
	maxRetries         = 2
	vanityCacheSize    = 512
)

var (
	ErrInvalidSteamID = errors.New("invalid steam id or profile url")

	steam64Pattern = regexp.MustCompile(`^\d{17}$`)
	profilePattern = regexp.MustCompile(`/profiles/(\d{17})`)
	vanityPattern  = regexp.MustCompile(`/id/([^/?#]+)`)
)

// Verifier is what the progression engine needs from Steam. It is satisfied
// by Client and by test fakes.
type Verifier interface {
	VerifyWishlist(ctx context.Context, steamID string, appID string) (Verdict, error)
	VerifyEngagement(ctx context.Context, steamID string, postRef string) (Verdict, error)
}

// Client is a stateless adapter over the Steam Web API. Calls are bounded by
// the HTTP client timeout; transient failures are retried with exponential
// backoff and reported as VerdictUnreachable, never as a negative result.
type Client struct {
	apiKey      string
	apiBase     string
	httpClient  *http.Client
	vanityCache *lru.Cache
}

func NewClient(apiKey string) *Client {
	// Vanity names change rarely; the cache spares the rate limit.
	cache, _ := lru.New(vanityCacheSize)
	return &Client{
		apiKey:      apiKey,
		apiBase:     defaultAPIBase,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		vanityCache: cache,
	}
}

var _ Verifier = (*Client)(nil)

// ResolveSteamID turns user input into a steam64 id: a bare 17-digit id, a
// /profiles/ URL, or a /id/ vanity URL resolved through the Web API.
func (c *Client) ResolveSteamID(ctx context.Context, input string) (string, error) {
	if steam64Pattern.MatchString(input) {
		return input, nil
	}

	if m := profilePattern.FindStringSubmatch(input); m != nil {
		return m[1], nil
	}

	if m := vanityPattern.FindStringSubmatch(input); m != nil {
		return c.ResolveVanityURL(ctx, m[1])
	}

	return "", ErrInvalidSteamID
}

func (c *Client) ResolveVanityURL(ctx context.Context, vanity string) (string, error) {
	if cached, ok := c.vanityCache.Get(vanity); ok {
		return cached.(string), nil
	}

	if c.apiKey == "" {
		return "", fmt.Errorf("%w: vanity urls need a steam api key", ErrInvalidSteamID)
	}

	endpoint := fmt.Sprintf("%s/ISteamUser/ResolveVanityURL/v0001/?key=%s&vanityurl=%s",
		c.apiBase, url.QueryEscape(c.apiKey), url.QueryEscape(vanity))

	var out struct {
		Response struct {
			Success int    `json:"success"`
			SteamID string `json:"steamid"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return "", fmt.Errorf("failed to resolve vanity url: %w", err)
	}

	if out.Response.Success != 1 || out.Response.SteamID == "" {
		return "", ErrInvalidSteamID
	}

	c.vanityCache.Add(vanity, out.Response.SteamID)
	return out.Response.SteamID, nil
}

// VerifyAccount checks that the steam id belongs to a real account. Without
// an API key only the id shape is validated, matching how the bot behaves in
// keyless development setups.
func (c *Client) VerifyAccount(ctx context.Context, steamID string) (bool, error) {
	if c.apiKey == "" {
		return steam64Pattern.MatchString(steamID), nil
	}

	endpoint := fmt.Sprintf("%s/ISteamUser/GetPlayerSummaries/v0002/?key=%s&steamids=%s",
		c.apiBase, url.QueryEscape(c.apiKey), url.QueryEscape(steamID))

	var out struct {
		Response struct {
			Players []struct {
				SteamID string `json:"steamid"`
			} `json:"players"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return false, err
	}

	return len(out.Response.Players) > 0 && out.Response.Players[0].SteamID == steamID, nil
}

func (c *Client) VerifyWishlist(ctx context.Context, steamID string, appID string) (Verdict, error) {
	endpoint := fmt.Sprintf("%s/IWishlistService/GetWishlist/v1/?steamid=%s",
		c.apiBase, url.QueryEscape(steamID))

	var out struct {
		Response struct {
			Items []struct {
				AppID json.Number `json:"appid"`
			} `json:"items"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		slog.Warn("Wishlist lookup unreachable",
			slog.String("type", "error"),
			slog.String("steam_id", steamID),
			slog.Any("error", err))
		return VerdictUnreachable, err
	}

	for _, item := range out.Response.Items {
		if item.AppID.String() == appID {
			return VerdictPresent, nil
		}
	}
	return VerdictAbsent, nil
}

// VerifyEngagement confirms community-post engagement. Steam exposes no API
// for post reactions, so this is attestation-based: the user's explicit
// confirmation is accepted and the post reference is kept in the audit log.
func (c *Client) VerifyEngagement(_ context.Context, _ string, _ string) (Verdict, error) {
	return VerdictConfirmed, nil
}

// getJSON fetches and decodes one endpoint. Network errors, 429 and 5xx are
// retried; any other non-200 is permanent.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("steam api returned status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("steam api returned status %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode steam response: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}
