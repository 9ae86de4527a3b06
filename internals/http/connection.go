package http

import (
	"crypto/tls"
	"net/http"
)

type Header struct {
	Key   string
	Value string
}

// Connection describes how the backend is reached. The backend has no
// authentication; static headers are only used to pass through proxies or
// gateways that need them.
type Connection struct {
	url        string
	verifyCert bool
	headers    []Header
}

func (c *Connection) getUrl() string {
	return c.url
}

func (c *Connection) verifyCertificate() bool {
	return c.verifyCert
}

func (c *Connection) staticHeaders() []Header {
	return c.headers
}

// transport returns a transport honoring the certificate setting without
// touching http.DefaultTransport.
func (c *Connection) transport() http.RoundTripper {
	if c.verifyCert {
		return http.DefaultTransport
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return t
}
