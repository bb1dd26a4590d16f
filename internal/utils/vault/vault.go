package vault

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"resty.dev/v3"

	"github.com/dwarvesf/swap-history/internal/utils/config"
)

// Client reads secrets from a Vault KV v2 mount using Kubernetes auth
type Client struct {
	client    *resty.Client
	addr      string
	kvPath    string
	role      string
	tokenPath string
	token     string
}

type loginResponse struct {
	Auth *struct {
		ClientToken string `json:"client_token"`
	} `json:"auth"`
}

type kvResponse struct {
	Data *struct {
		Data map[string]any `json:"data"`
	} `json:"data"`
}

func New(cfg config.VaultConfig) *Client {
	return &Client{
		client:    resty.New().SetTimeout(10 * time.Second),
		addr:      cfg.Addr,
		kvPath:    cfg.KVSecretPath,
		role:      cfg.Role,
		tokenPath: cfg.TokenPath,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Login exchanges the service account token for a Vault token
func (c *Client) Login(ctx context.Context) error {
	jwt, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return errors.Wrap(err, "failed to read service account token")
	}

	var out loginResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"jwt": string(jwt), "role": c.role}).
		SetResult(&out).
		Post(c.addr + "/v1/auth/kubernetes/login")
	if err != nil {
		return errors.Wrap(err, "vault login")
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("vault authentication failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Auth == nil || out.Auth.ClientToken == "" {
		return errors.New("vault returned empty client_token")
	}

	c.token = out.Auth.ClientToken
	return nil
}

// Secrets returns every key stored under the configured KV path
func (c *Client) Secrets(ctx context.Context) (map[string]string, error) {
	var out kvResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Vault-Token", c.token).
		SetResult(&out).
		Get(c.addr + "/v1/" + c.kvPath)
	if err != nil {
		return nil, errors.Wrap(err, "vault kv get")
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("vault KV get failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Data == nil || out.Data.Data == nil {
		return nil, errors.New("vault response missing nested 'data' field")
	}

	secrets := make(map[string]string, len(out.Data.Data))
	for k, v := range out.Data.Data {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("secret value for key '%s' is not a string", k)
		}
		secrets[k] = s
	}
	return secrets, nil
}

// Apply overrides the config secrets present in Vault. Missing keys keep the env value.
func Apply(ctx context.Context, c *Client, appConfig *config.AppConfig) error {
	if err := c.Login(ctx); err != nil {
		return err
	}
	secrets, err := c.Secrets(ctx)
	if err != nil {
		return err
	}

	if v, ok := secrets["DB_PASS"]; ok {
		appConfig.Postgres.Pass = v
	}
	if v, ok := secrets["COINGECKO_API_KEY"]; ok {
		appConfig.CoinGecko.APIKey = v
	}
	return nil
}
