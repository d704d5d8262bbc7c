package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
)

const (
	defaultTwitterRequestTokenURL      = "https://api.twitter.com/oauth/request_token"
	defaultTwitterAuthorizeURL         = "https://api.twitter.com/oauth/authenticate"
	defaultTwitterAccessTokenURL       = "https://api.twitter.com/oauth/access_token"
	defaultTwitterVerifyCredentialsURL = "https://api.twitter.com/1.1/account/verify_credentials.json"
)

// twitterTimeLayout はTwitter APIのcreated_atの形式。
const twitterTimeLayout = time.RubyDate

// TwitterConfig はTwitter OAuth 1.0aプロバイダーの設定。
type TwitterConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
	// HTTPClient はrequest_token、access_token、verify_credentialsの全呼び出しに使うクライアント。
	// nilの場合はhttp.DefaultClient。
	HTTPClient *http.Client

	// テスト用にオーバーライド可能なURL
	RequestTokenURL      string
	AuthorizeURL         string
	AccessTokenURL       string
	VerifyCredentialsURL string
}

// TwitterUser はverify_credentialsで取得したユーザー情報。
type TwitterUser struct {
	ID         string
	Name       string
	ScreenName string
	CreatedAt  time.Time
}

// TwitterProvider はTwitter OAuth 1.0aによる認証を提供する。
type TwitterProvider struct {
	config               *oauth1.Config
	verifyCredentialsURL string
	httpClient           *http.Client
}

// NewTwitterProvider はTwitterProviderを生成する。
func NewTwitterProvider(config TwitterConfig) *TwitterProvider {
	if config.RequestTokenURL == "" {
		config.RequestTokenURL = defaultTwitterRequestTokenURL
	}
	if config.AuthorizeURL == "" {
		config.AuthorizeURL = defaultTwitterAuthorizeURL
	}
	if config.AccessTokenURL == "" {
		config.AccessTokenURL = defaultTwitterAccessTokenURL
	}
	if config.VerifyCredentialsURL == "" {
		config.VerifyCredentialsURL = defaultTwitterVerifyCredentialsURL
	}
	return &TwitterProvider{
		config: &oauth1.Config{
			ConsumerKey:    config.ConsumerKey,
			ConsumerSecret: config.ConsumerSecret,
			CallbackURL:    config.CallbackURL,
			HTTPClient:     config.HTTPClient,
			Endpoint: oauth1.Endpoint{
				RequestTokenURL: config.RequestTokenURL,
				AuthorizeURL:    config.AuthorizeURL,
				AccessTokenURL:  config.AccessTokenURL,
			},
		},
		verifyCredentialsURL: config.VerifyCredentialsURL,
		httpClient:           config.HTTPClient,
	}
}

// RequestToken はリクエストトークンを取得する。
func (p *TwitterProvider) RequestToken(_ context.Context) (token, secret string, err error) {
	token, secret, err = p.config.RequestToken()
	if err != nil {
		return "", "", fmt.Errorf("failed to obtain request token: %w", err)
	}
	return token, secret, nil
}

// AuthorizationURL はユーザーを誘導する認可URLを返す。
func (p *TwitterProvider) AuthorizationURL(requestToken string) (string, error) {
	u, err := p.config.AuthorizationURL(requestToken)
	if err != nil {
		return "", fmt.Errorf("failed to build authorization url: %w", err)
	}
	return u.String(), nil
}

// AccessToken はリクエストトークンとverifierをアクセストークンに交換する。
func (p *TwitterProvider) AccessToken(_ context.Context, requestToken, requestSecret, verifier string) (token, secret string, err error) {
	token, secret, err = p.config.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return "", "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	return token, secret, nil
}

// twitterCredentials はverify_credentialsのレスポンス。
type twitterCredentials struct {
	IDStr      string `json:"id_str"`
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
	CreatedAt  string `json:"created_at"`
}

// VerifyCredentials はアクセストークンでユーザー情報を取得する。
func (p *TwitterProvider) VerifyCredentials(ctx context.Context, accessToken, accessSecret string) (*TwitterUser, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth1.HTTPClient, p.httpClient)
	}
	client := p.config.Client(ctx, oauth1.NewToken(accessToken, accessSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.verifyCredentialsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify credentials request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify credentials request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read verify credentials response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verify credentials failed with status %d: %s", resp.StatusCode, string(body))
	}

	var creds twitterCredentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse verify credentials response: %w", err)
	}
	if creds.IDStr == "" {
		return nil, fmt.Errorf("empty id_str in verify credentials response")
	}
	if creds.ScreenName == "" {
		return nil, fmt.Errorf("empty screen_name in verify credentials response")
	}

	user := &TwitterUser{
		ID:         creds.IDStr,
		Name:       creds.Name,
		ScreenName: creds.ScreenName,
	}
	if creds.CreatedAt != "" {
		createdAt, err := time.Parse(twitterTimeLayout, creds.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", creds.CreatedAt, err)
		}
		user.CreatedAt = createdAt
	}
	return user, nil
}

// compile-time interface check
var _ TwitterAPI = (*TwitterProvider)(nil)
