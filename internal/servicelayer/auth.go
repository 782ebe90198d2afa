package servicelayer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// BasicToken derives the Basic-Auth token the Service Layer expects:
// base64 of `{"CompanyDB":"<db>","UserName":"<user>"}:<password>`.
// The JSON pair is marshaled from a struct so the key order and the
// absence of whitespace stay byte-for-byte stable — the server matches
// this material verbatim.
func BasicToken(companyDB, userName, password string) string {
	pair, _ := json.Marshal(struct {
		CompanyDB string `json:"CompanyDB"`
		UserName  string `json:"UserName"`
	}{companyDB, userName})
	return base64.StdEncoding.EncodeToString(append(append(pair, ':'), []byte(password)...))
}

// Login exchanges credentials for a session token. On success the token
// is installed on the client and the current-user profile is fetched
// best-effort to pick up the canonical display name; a failure of that
// secondary call does not fail the login.
func (c *Client) Login(ctx context.Context, userName, password string) (token, displayName string, err error) {
	body := map[string]string{
		"CompanyDB": c.cfg.API.CompanyDB,
		"UserName":  userName,
		"Password":  password,
	}
	resp, err := c.Post(ctx, c.URL(c.cfg.Endpoints.Login), body)
	if err != nil {
		return "", "", fmt.Errorf("login: %w", err)
	}
	if !resp.OK() {
		return "", "", &RemoteError{Status: resp.Status, Body: string(resp.Body)}
	}

	token = BasicToken(c.cfg.API.CompanyDB, userName, password)
	c.SetToken(token)

	displayName = userName
	if name, err := c.CurrentUser(ctx); err == nil && name != "" {
		displayName = name
	} else if err != nil {
		c.log.Debug("current user fetch failed, keeping login username", "err", err)
	}
	return token, displayName, nil
}

// CurrentUser probes the users service with the installed token and
// returns the profile username. Also serves as the session validity check.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	resp, err := c.Get(ctx, c.URL(c.cfg.Endpoints.CurrentUser))
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", &RemoteError{Status: resp.Status, Body: string(resp.Body)}
	}
	var user struct {
		UserName string `json:"UserName"`
	}
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		return "", fmt.Errorf("decode current user: %w", err)
	}
	return user.UserName, nil
}

type LoginFailure int

const (
	LoginFailed LoginFailure = iota
	LoginInvalidUsername
	LoginInvalidPassword
	LoginAccountLocked
)

// ClassifyLoginError keyword-matches a login error message to pick a
// friendlier operator-facing text. The Service Layer gives no error
// taxonomy, so this is a UX heuristic, not a contract.
func ClassifyLoginError(serverMessage string) (LoginFailure, string) {
	msg := strings.ToLower(serverMessage)
	switch {
	case strings.Contains(msg, "username") || strings.Contains(msg, "user"):
		return LoginInvalidUsername, "The username you entered does not exist. Please check your username and try again."
	case strings.Contains(msg, "password") || strings.Contains(msg, "pass"):
		return LoginInvalidPassword, "The password you entered is incorrect. Please check your password and try again."
	case strings.Contains(msg, "locked") || strings.Contains(msg, "blocked"):
		return LoginAccountLocked, "Your account has been locked due to multiple failed login attempts. Please contact support."
	default:
		return LoginFailed, serverMessage
	}
}
