package utils

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

const (
	LocalBackendURL = "http://localhost:8000/api"
	BackendPort     = "8000"
	APIPath         = "/api"
)

// ValidateURL normalizes a backend base URL. A missing scheme defaults to
// https. The path is kept since the API is mounted below it, but the query,
// the fragment and any trailing slash are dropped.
func ValidateURL(urlString string) (string, error) {
	urlString = strings.TrimSpace(urlString)
	if urlString == "" {
		return "", errors.New("empty url")
	}
	if !strings.Contains(urlString, "://") {
		urlString = "https://" + urlString
	}

	u, err := url.Parse(urlString)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", errors.New("url has no host")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("url scheme must be http or https")
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	return u.String(), nil
}

// ResolveBaseURL returns the backend base URL. An explicit override always
// wins. Otherwise localhost maps to the local development backend and any
// other host gets "-8000" appended to its first DNS label:
//
//	app.example.dev -> https://app-8000.example.dev/api
func ResolveBaseURL(override string, host string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return ValidateURL(override)
	}

	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" || host == "localhost" || host == "127.0.0.1" {
		return LocalBackendURL, nil
	}

	label, rest, found := strings.Cut(host, ".")
	backendHost := label + "-" + BackendPort
	if found {
		backendHost += "." + rest
	}
	return ValidateURL("https://" + backendHost + APIPath)
}
