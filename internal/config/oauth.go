package config

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func OAuthConfig(cfg *Config) *oauth2.Config {
	scopes := []string{"openid", "email", "profile"}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}
