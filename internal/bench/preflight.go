package bench

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"userinfo-service/internal/client"
)

// Preflight describes the user-info service found at the target host.
type Preflight struct {
	BaseURL    string
	Greeting   string
	ServerTime time.Time
	// Skew is the server clock minus the local clock, to the second.
	Skew time.Duration
}

// CheckTarget greets the service behind target and reads its clock before
// a run, so a wrong host or a service that is down shows up early.
func CheckTarget(ctx context.Context, target string) (Preflight, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Preflight{}, fmt.Errorf("%w: target %q needs a scheme and host", ErrInvalidOptions, target)
	}
	base := u.Scheme + "://" + u.Host

	c := client.New(base, client.WithRetry(2, 200*time.Millisecond))
	msg, err := c.Greet(ctx)
	if err != nil {
		return Preflight{}, fmt.Errorf("greet %s: %w", base, err)
	}
	serverTime, err := c.Time(ctx, time.Local)
	if err != nil {
		return Preflight{}, fmt.Errorf("time %s: %w", base, err)
	}

	return Preflight{
		BaseURL:    base,
		Greeting:   msg,
		ServerTime: serverTime,
		Skew:       serverTime.Sub(time.Now().Truncate(time.Second)),
	}, nil
}
