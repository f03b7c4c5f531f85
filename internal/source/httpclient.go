package source

import (
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingClient wraps an HTTP client and logs every round trip at debug level.
type LoggingClient struct {
	wrapped *http.Client
	log     logrus.FieldLogger
}

// NewLoggingClient wraps client, or a fresh client with the given timeout
// when client is nil.
func NewLoggingClient(client *http.Client, timeout time.Duration, log logrus.FieldLogger) *LoggingClient {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &LoggingClient{wrapped: client, log: log}
}

// Do sends the request and logs method, URL, status and duration.
func (c *LoggingClient) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.wrapped.Do(req)

	fields := logrus.Fields{
		"method":   req.Method,
		"url":      req.URL.String(),
		"duration": time.Since(start).String(),
		"headers":  redact(req.Header),
	}
	if err != nil {
		c.log.WithFields(fields).WithError(err).Debug("[Upstream] HTTP request failed")
		return nil, err
	}
	fields["status"] = resp.StatusCode
	c.log.WithFields(fields).Debug("[Upstream] HTTP request")
	return resp, nil
}

func redact(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		key := strings.ToLower(k)
		if key == "authorization" || key == "cookie" || strings.Contains(key, "token") {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}
