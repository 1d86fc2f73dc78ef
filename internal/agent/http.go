package agent

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// newRestyClient builds the HTTP client shared by the vault and market
// stubs. Proxy settings come from the environment (resty honors
// HTTP_PROXY/HTTPS_PROXY on its own).
func newRestyClient(baseURL string) *resty.Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")
}
