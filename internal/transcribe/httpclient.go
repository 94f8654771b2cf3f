package transcribe

import (
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// newHTTPClient builds the client shared by HTTP backends. The timeout
// bounds a whole transcription request; a timed-out request surfaces as
// an ordinary transcription error and the audio stays on disk.
func newHTTPClient(timeoutSeconds int, enableHTTP2 bool) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if enableHTTP2 {
		_ = http2.ConfigureTransport(tr)
	}

	var timeout time.Duration
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
}
