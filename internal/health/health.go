package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Check is a single HTTP probe against a started project.
type Check struct {
	Endpoint       string `yaml:"endpoint"`
	Method         string `yaml:"method"`
	ExpectedStatus int    `yaml:"expected_status"`
}

func (c Check) method() string {
	if c.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(c.Method)
}

func (c Check) expected() int {
	if c.ExpectedStatus == 0 {
		return http.StatusOK
	}
	return c.ExpectedStatus
}

// Result of a probe run. Issued counts the requests actually sent.
type Result struct {
	OK     bool
	Output string
	Error  string
	Issued int
}

type Prober struct {
	Client *http.Client
}

func NewProber(timeout time.Duration) *Prober {
	return &Prober{Client: &http.Client{Timeout: timeout}}
}

// Probe issues checks in order and stops at the first failure.
func (p *Prober) Probe(ctx context.Context, baseURL string, checks []Check) Result {
	var (
		out strings.Builder
		res Result
	)
	base := strings.TrimRight(baseURL, "/")

	for _, c := range checks {
		url := base + "/" + strings.TrimLeft(c.Endpoint, "/")
		label := fmt.Sprintf("%s %s", c.method(), url)

		res.Issued++
		status, err := p.do(ctx, c.method(), url)
		switch {
		case errors.Is(err, syscall.ECONNREFUSED):
			res.Output = out.String()
			res.Error = fmt.Sprintf("Health check FAILED for %s: Connection refused. Is the app running?", label)
			return res
		case err != nil:
			res.Output = out.String()
			res.Error = fmt.Sprintf("Health check FAILED for %s: %v", label, err)
			return res
		case status != c.expected():
			res.Output = out.String()
			res.Error = fmt.Sprintf("Health check FAILED for %s: Expected %d, got %d", label, c.expected(), status)
			return res
		}
		fmt.Fprintf(&out, "Health check PASSED for %s (%d)\n", label, status)
	}

	res.OK = true
	res.Output = out.String()
	return res
}

func (p *Prober) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
