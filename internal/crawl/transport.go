package crawl

import (
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const defaultRetryMax = 2

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
}

// Transport sets a random User-Agent on each request and retries replayable
// requests (GET or HEAD without a body) on transport errors.
type Transport struct {
	Base http.RoundTripper

	// RetryMax is the number of retries after the first attempt.
	RetryMax int

	ua *uaPool
}

// NewTransport wraps base. An empty agent list selects the built-in pool.
func NewTransport(base http.RoundTripper, retryMax int, agents []string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	if len(agents) == 0 {
		agents = defaultUserAgents
	}

	return &Transport{
		Base:     base,
		RetryMax: retryMax,
		ua:       newUAPool(agents),
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil

	retries := max(t.RetryMax, 0)
	if !canRetry {
		retries = 0
	}

	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.ua != nil {
			r.Header.Set("User-Agent", t.ua.random())
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func newUAPool(uas []string) *uaPool {
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.uas[p.rnd.Intn(len(p.uas))]
}
