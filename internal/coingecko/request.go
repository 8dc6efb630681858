package coingecko

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

// call describes one upstream endpoint and how its failures read.
type call struct {
	path  string
	query url.Values
	// resource is reported in a NotFoundError.
	resource string
	// notFound, failed and network are the messages attached to each error kind.
	notFound string
	failed   string
	network  string
}

// get performs cl with the per-attempt timeout and bounded retry. Only
// transport failures are retried, HTTP statuses are returned as they come.
//
// The retry sequence runs detached from ctx cancellation so a caller that
// goes away does not cut an upstream call short.
func (c *Client) get(ctx context.Context, cl call) ([]byte, error) {
	ctx = context.WithoutCancel(ctx)

	raw := fmt.Sprintf("%s/%s", c.baseURL, cl.path)
	if len(cl.query) > 0 {
		raw += "?" + cl.query.Encode()
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	log := c.logger.WithFields(logrus.Fields{"upstream": "coingecko", "path": cl.path})

	var (
		status    int
		body      []byte
		attempts  int
		transport bool
	)
	err = retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempts++
		transport = false

		actx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(actx, http.MethodGet, target.String(), http.NoBody)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header = c.header.Clone()

		started := time.Now()
		res, err := c.httpClient.Do(req)
		if err != nil {
			transport = true
			log.WithError(err).WithField("attempt", attempts).Warn("upstream request failed")
			return retry.RetryableError(fmt.Errorf("performing request: %w", err))
		}
		defer res.Body.Close()

		b, err := io.ReadAll(res.Body)
		if err != nil {
			transport = true
			log.WithError(err).WithField("attempt", attempts).Warn("reading upstream response failed")
			return retry.RetryableError(fmt.Errorf("reading response: %w", err))
		}
		status, body = res.StatusCode, b
		log.WithFields(logrus.Fields{
			"attempt":  attempts,
			"status":   status,
			"duration": time.Since(started),
		}).Debug("upstream response")
		return nil
	})
	if err != nil {
		if !transport {
			return nil, err
		}
		log.WithError(err).WithField("attempts", attempts).Error("upstream unreachable")
		return nil, &NetworkError{Attempts: attempts, Message: cl.network, Err: err}
	}

	switch {
	case status >= 200 && status < 300:
		return body, nil
	case status == http.StatusNotFound:
		return nil, &NotFoundError{Resource: cl.resource, Message: cl.notFound}
	default:
		log.WithField("status", status).Warn("upstream returned failure status")
		return nil, &UpstreamError{StatusCode: status, Message: fmt.Sprintf("%s: %d", cl.failed, status)}
	}
}

// backoff allows attempts-1 retries spaced by the fixed delay. It is stateful
// and must be built per call.
func (c *Client) backoff() retry.Backoff {
	var b retry.Backoff
	if c.retryDelay > 0 {
		b = retry.NewConstant(c.retryDelay)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	return retry.WithMaxRetries(uint64(c.attempts-1), b)
}
