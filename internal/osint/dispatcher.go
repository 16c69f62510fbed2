// Package osint classifies a single free-text input and runs the matching
// public-data lookup. Every lookup degrades to a fixed human-readable
// message instead of returning an error.
package osint

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_resolver.go -package=mocks github.com/notedx/notedx/internal/osint Resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultPublicIPURL = "https://api.ipify.org"
	DefaultTimeout     = 10 * time.Second
)

var ErrEmptyInput = errors.New("please enter a username, email or phone number")

// Resolver is the subset of *net.Resolver used by the email and domain lookups.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupAddr(ctx context.Context, addr string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// History records completed lookups.
type History interface {
	RecordLookup(kind, input, result string, at time.Time) error
}

type Result struct {
	Kind  Kind
	Input string
	Body  string
}

func (r Result) Title() string { return r.Kind.Title() }

// Text renders the result the way the result box shows it.
func (r Result) Text() string {
	return fmt.Sprintf("[%s]\n%s\n", r.Kind.Label(), r.Body)
}

type Dispatcher struct {
	resolver Resolver
	client   *http.Client
	ipURL    string
	region   string
	timeout  time.Duration
	history  History
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithResolver(r Resolver) Option {
	return func(d *Dispatcher) { d.resolver = r }
}

func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

func WithPublicIPURL(url string) Option {
	return func(d *Dispatcher) {
		if url != "" {
			d.ipURL = url
		}
	}
}

// WithRegion sets the region used to parse phone numbers written without a
// leading country code.
func WithRegion(region string) Option {
	return func(d *Dispatcher) { d.region = strings.ToUpper(region) }
}

func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

func WithHistory(h History) Option {
	return func(d *Dispatcher) { d.history = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver: net.DefaultResolver,
		client:   http.DefaultClient,
		ipURL:    DefaultPublicIPURL,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Region is a country offered by the phone region selector.
type Region struct {
	Code        string
	CallingCode string
}

func (r Region) String() string {
	return r.CallingCode + " (" + r.Code + ")"
}

var Regions = []Region{
	{Code: "US", CallingCode: "+1"},
	{Code: "GB", CallingCode: "+44"},
	{Code: "EG", CallingCode: "+20"},
	{Code: "DE", CallingCode: "+49"},
	{Code: "FR", CallingCode: "+33"},
	{Code: "IN", CallingCode: "+91"},
}

func (d *Dispatcher) Region() string {
	return d.region
}

// ForRegion returns a copy of d that parses phone numbers for region.
func (d *Dispatcher) ForRegion(region string) *Dispatcher {
	c := *d
	c.region = strings.ToUpper(region)
	return &c
}

// Lookup classifies input and runs exactly one lookup. It only fails on
// empty input.
func (d *Dispatcher) Lookup(ctx context.Context, input string) (Result, error) {
	in := strings.TrimSpace(input)
	if in == "" {
		return Result{}, ErrEmptyInput
	}

	kind := Classify(in)
	logger := d.logger.With("kind", kind.String())

	var body string
	switch kind {
	case KindPhone:
		body = d.Phone(in)
	case KindEmail:
		body = d.Email(ctx, in)
	case KindPublicIP:
		body = d.PublicIP(ctx)
	case KindDomain:
		body = d.Domain(ctx, in)
	default:
		body = Dork(in)
	}

	res := Result{Kind: kind, Input: in, Body: body}
	logger.Debug("Lookup complete", "input", in)

	if d.history != nil {
		if err := d.history.RecordLookup(kind.String(), in, body, d.now()); err != nil {
			logger.Warn("Failed to record lookup", "error", err)
		}
	}
	return res, nil
}

func (d *Dispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.timeout)
}
