// Package bench drives a fixed number of GET requests against a URL and
// reports throughput and latency.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Mode selects how requests are scheduled onto goroutines.
type Mode string

const (
	// ModeSlots starts one goroutine per request and bounds concurrency
	// with a semaphore channel. Latencies are reported over a channel.
	ModeSlots Mode = "slots"
	// ModePool runs Concurrency workers that pull jobs from a channel and
	// report latencies over a channel.
	ModePool Mode = "pool"
	// ModePoolMutex runs the same workers but folds results into shared
	// stats under a mutex.
	ModePoolMutex Mode = "pool-mutex"
)

var ErrInvalidOptions = errors.New("invalid bench options")

type Options struct {
	URL         string
	Requests    int
	Concurrency int
	KeepAlive   bool
	// Redirects is the maximum number of redirects followed per request.
	Redirects int
	Mode      Mode
	Timeout   time.Duration
	// Client overrides the HTTP client built from the options above.
	Client *http.Client
}

func (o *Options) validate() error {
	if o.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidOptions)
	}
	if o.Requests < 1 {
		return fmt.Errorf("%w: requests must be positive", ErrInvalidOptions)
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidOptions)
	}
	if o.Redirects < 0 {
		return fmt.Errorf("%w: redirects must not be negative", ErrInvalidOptions)
	}
	switch o.Mode {
	case "":
		o.Mode = ModeSlots
	case ModeSlots, ModePool, ModePoolMutex:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, o.Mode)
	}
	return nil
}

type Result struct {
	Requests    int
	Success     int
	Failures    int
	StatusCodes map[int]int
	Elapsed     time.Duration
	MinLatency  time.Duration
	MaxLatency  time.Duration
	AvgLatency  time.Duration
}

// TPS is completed requests per second over the whole run.
func (r Result) TPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Requests) / r.Elapsed.Seconds()
}

// ErrorPercent is the share of failed requests, 0-100.
func (r Result) ErrorPercent() float64 {
	if r.Requests == 0 {
		return 0
	}
	return 100 * float64(r.Failures) / float64(r.Requests)
}

// sample is the outcome of a single request. status is 0 on transport error.
type sample struct {
	latency time.Duration
	status  int
	err     error
}

type stats struct {
	success  int
	failures int
	codes    map[int]int
	sum      time.Duration
	min      time.Duration
	max      time.Duration
}

func newStats() *stats {
	return &stats{codes: make(map[int]int)}
}

func (s *stats) add(smp sample) {
	if smp.err != nil {
		s.failures++
		return
	}
	s.codes[smp.status]++
	if s.success == 0 || smp.latency < s.min {
		s.min = smp.latency
	}
	if s.success == 0 || smp.latency > s.max {
		s.max = smp.latency
	}
	s.success++
	s.sum += smp.latency
}

func Run(ctx context.Context, opts Options) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}

	client := opts.Client
	if client == nil {
		client = newHTTPClient(opts)
	}
	r := &runner{opts: opts, client: client}

	start := time.Now()
	var st *stats
	switch opts.Mode {
	case ModeSlots:
		st = r.runSlots(ctx)
	case ModePool:
		st = r.runPool(ctx)
	case ModePoolMutex:
		st = r.runPoolMutex(ctx)
	}
	elapsed := time.Since(start)

	res := Result{
		Requests:    opts.Requests,
		Success:     st.success,
		Failures:    st.failures,
		StatusCodes: st.codes,
		Elapsed:     elapsed,
		MinLatency:  st.min,
		MaxLatency:  st.max,
	}
	if st.success > 0 {
		res.AvgLatency = st.sum / time.Duration(st.success)
	}
	return res, nil
}

func newHTTPClient(opts Options) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = !opts.KeepAlive
	transport.MaxIdleConnsPerHost = opts.Concurrency

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxRedirects := opts.Redirects
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

type runner struct {
	opts   Options
	client *http.Client
}

func (r *runner) request(ctx context.Context) sample {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.URL, nil)
	if err != nil {
		return sample{err: err}
	}
	req.Close = !r.opts.KeepAlive

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		slog.Debug("Request error", "error", err)
		return sample{err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return sample{latency: time.Since(start), status: resp.StatusCode}
}

func (r *runner) runSlots(ctx context.Context) *stats {
	slots := make(chan struct{}, r.opts.Concurrency)
	results := make(chan sample, r.opts.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slots <- struct{}{}
			results <- r.request(ctx)
			<-slots
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	st := newStats()
	for smp := range results {
		st.add(smp)
	}
	return st
}

func (r *runner) feed() <-chan struct{} {
	jobs := make(chan struct{}, r.opts.Concurrency)
	go func() {
		defer close(jobs)
		for i := 0; i < r.opts.Requests; i++ {
			jobs <- struct{}{}
		}
	}()
	return jobs
}

func (r *runner) runPool(ctx context.Context) *stats {
	jobs := r.feed()
	results := make(chan sample, r.opts.Concurrency)

	var wg sync.WaitGroup
	for w := 0; w < r.opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				results <- r.request(ctx)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	st := newStats()
	for smp := range results {
		st.add(smp)
	}
	return st
}

func (r *runner) runPoolMutex(ctx context.Context) *stats {
	jobs := r.feed()

	var (
		mu sync.Mutex // guards st
		st = newStats()
		wg sync.WaitGroup
	)
	for w := 0; w < r.opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				smp := r.request(ctx)
				mu.Lock()
				st.add(smp)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return st
}
