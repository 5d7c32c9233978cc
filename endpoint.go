package checkend

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const noticePath = "/ingest/v1/errors"

// EndpointParseError is returned by NewEndpoint for malformed endpoint URLs.
type EndpointParseError struct {
	Message string
}

func (e *EndpointParseError) Error() string {
	return "checkend: invalid endpoint: " + e.Message
}

// Endpoint is the parsed, validated ingestion endpoint together with the
// project API key. It knows how to assemble the notice ingestion URL and the
// header set required by the confirmable transport.
type Endpoint struct {
	scheme string
	host   string
	port   int
	path   string
	apiKey string
}

// NewEndpoint parses rawURL and pairs it with the project API key. An empty
// key is allowed here; the client degrades to inert instead of failing.
func NewEndpoint(rawURL, apiKey string) (*Endpoint, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, &EndpointParseError{"invalid url"}
	}

	switch parsed.Scheme {
	case "http", "https":
	default:
		return nil, &EndpointParseError{"invalid scheme"}
	}

	if parsed.Hostname() == "" {
		return nil, &EndpointParseError{"empty host"}
	}

	var port int
	if parsed.Port() != "" {
		port, err = strconv.Atoi(parsed.Port())
		if err != nil {
			return nil, &EndpointParseError{"invalid port"}
		}
	}

	return &Endpoint{
		scheme: parsed.Scheme,
		host:   parsed.Hostname(),
		port:   port,
		path:   strings.TrimSuffix(parsed.Path, "/"),
		apiKey: apiKey,
	}, nil
}

func (e Endpoint) defaultPort() int {
	if e.scheme == "https" {
		return 443
	}
	return 80
}

// APIKey returns the project API key bound to this endpoint.
func (e Endpoint) APIKey() string {
	return e.apiKey
}

func (e Endpoint) baseURL() string {
	raw := fmt.Sprintf("%s://%s", e.scheme, e.host)
	if e.port != 0 && e.port != e.defaultPort() {
		raw += fmt.Sprintf(":%d", e.port)
	}
	return raw + e.path
}

// NoticeURL is the ingestion URL used by the confirmable transport.
func (e Endpoint) NoticeURL() string {
	return e.baseURL() + noticePath
}

// BeaconURL is the ingestion URL used by the best-effort transport. Beacons
// cannot carry custom headers, so the API key travels as a query parameter.
func (e Endpoint) BeaconURL() string {
	return e.NoticeURL() + "?key=" + url.QueryEscape(e.apiKey)
}

// RequestHeaders returns the fixed header set for the confirmable transport.
func (e Endpoint) RequestHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"X-API-Key":    e.apiKey,
		"User-Agent":   userAgent,
	}
}

func (e Endpoint) String() string {
	return e.baseURL()
}

func (e Endpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}
