package osint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/notedx/notedx/internal/osint/mocks"

	"go.uber.org/mock/gomock"
)

var quiet = WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"+20123456789", KindPhone},
		{" + 1 650 253 0000", KindPhone},
		{"+foo@bar.com", KindPhone},
		{"a@b.com", KindEmail},
		{"user@localhost", KindEmail},
		{"my ip", KindPublicIP},
		{"MY IP", KindPublicIP},
		{"  My Ip  ", KindPublicIP},
		{"example.com", KindDomain},
		{"sub.example.co.uk", KindDomain},
		{"johndoe", KindUsername},
		{"my ipv4", KindUsername},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Classify(tt.input); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestKindLabels(t *testing.T) {
	if KindDomain.Label() != "DOMAIN SEARCH" {
		t.Errorf("unexpected label %q", KindDomain.Label())
	}
	if KindDomain.Title() != "Domain Info" {
		t.Errorf("unexpected title %q", KindDomain.Title())
	}
	if KindPublicIP.String() != "public_ip" {
		t.Errorf("unexpected string %q", KindPublicIP.String())
	}
}

func TestLookupEmptyInput(t *testing.T) {
	d := NewDispatcher(quiet)
	_, err := d.Lookup(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestLookupUsername(t *testing.T) {
	d := NewDispatcher(quiet)
	res, err := d.Lookup(context.Background(), "johndoe")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	want := "Use the following Google Dork: site:* johndoe"
	if res.Body != want {
		t.Errorf("expected %q, got %q", want, res.Body)
	}
	if res.Text() != "[USERNAME SEARCH]\n"+want+"\n" {
		t.Errorf("unexpected text %q", res.Text())
	}
}

func TestPhone(t *testing.T) {
	d := NewDispatcher(quiet, WithRegion("eg"))

	body := d.Phone("+1 650-253-0000")
	for _, want := range []string{"Country: ", "Carrier: ", "Region: US", "E.164: +16502530000", "Valid: yes"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in %q", want, body)
		}
	}
}

func TestPhoneInvalid(t *testing.T) {
	d := NewDispatcher(quiet)
	if got := d.Phone("+"); got != "Invalid phone number." {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestEmailWithMX(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockResolver(ctrl)
	resolver.EXPECT().
		LookupMX(gomock.Any(), "example.com").
		Return([]*net.MX{{Host: "mx2.example.com.", Pref: 20}, {Host: "mx1.example.com.", Pref: 10}}, nil)

	d := NewDispatcher(quiet, WithResolver(resolver))
	body := d.Email(context.Background(), "alice@example.com")

	if !strings.HasPrefix(body, "Domain: example.com\nMail server info might require MX record lookup (use `nslookup -q=mx example.com`).") {
		t.Errorf("unexpected body %q", body)
	}
	if !strings.HasSuffix(body, "\nMX: mx1.example.com (10), mx2.example.com (20)") {
		t.Errorf("expected sorted MX hosts, got %q", body)
	}
}

func TestEmailMXFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockResolver(ctrl)
	resolver.EXPECT().LookupMX(gomock.Any(), "nowhere.invalid").Return(nil, errors.New("no such host"))

	d := NewDispatcher(quiet, WithResolver(resolver))
	body := d.Email(context.Background(), "bob@nowhere.invalid")

	want := "Domain: nowhere.invalid\nMail server info might require MX record lookup (use `nslookup -q=mx nowhere.invalid`)."
	if body != want {
		t.Errorf("expected %q, got %q", want, body)
	}
}

func TestEmailNoDomain(t *testing.T) {
	d := NewDispatcher(quiet, WithResolver(nil))
	if got := d.Email(context.Background(), "bob@"); got != "Invalid email address." {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestDomain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockResolver(ctrl)
	gomock.InOrder(
		resolver.EXPECT().
			LookupHost(gomock.Any(), "example.com").
			Return([]string{"2606:2800:220:1:248:1893:25c8:1946", "93.184.216.34"}, nil),
		resolver.EXPECT().
			LookupAddr(gomock.Any(), "93.184.216.34").
			Return([]string{"edge.example.com."}, nil),
	)

	d := NewDispatcher(quiet, WithResolver(resolver))
	res, err := d.Lookup(context.Background(), "https://example.com/path")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if res.Kind != KindDomain {
		t.Fatalf("expected domain, got %v", res.Kind)
	}
	if want := "IP: 93.184.216.34\nHost: edge.example.com"; res.Body != want {
		t.Errorf("expected %q, got %q", want, res.Body)
	}
}

func TestDomainReverseFailsUsesIP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockResolver(ctrl)
	resolver.EXPECT().LookupHost(gomock.Any(), "example.org").Return([]string{"10.0.0.1"}, nil)
	resolver.EXPECT().LookupAddr(gomock.Any(), "10.0.0.1").Return(nil, errors.New("no PTR"))

	d := NewDispatcher(quiet, WithResolver(resolver))
	if want, got := "IP: 10.0.0.1\nHost: 10.0.0.1", d.Domain(context.Background(), "example.org"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDomainUnresolvable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockResolver(ctrl)
	resolver.EXPECT().LookupHost(gomock.Any(), "nothing.invalid").Return(nil, errors.New("no such host"))

	d := NewDispatcher(quiet, WithResolver(resolver))
	if got := d.Domain(context.Background(), "nothing.invalid"); got != "Unable to resolve domain." {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestPublicIP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		fmt.Fprintln(w, "203.0.113.7")
	}))
	defer server.Close()

	d := NewDispatcher(quiet, WithHTTPClient(server.Client()), WithPublicIPURL(server.URL))
	res, err := d.Lookup(context.Background(), "MY IP")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if res.Body != "203.0.113.7" {
		t.Errorf("expected 203.0.113.7, got %q", res.Body)
	}
}

func TestPublicIPFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not an address", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>rate limited</html>")
		}},
		{"too slow", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			fmt.Fprint(w, "203.0.113.7")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			d := NewDispatcher(quiet,
				WithHTTPClient(server.Client()),
				WithPublicIPURL(server.URL),
				WithTimeout(50*time.Millisecond),
			)
			if got := d.PublicIP(context.Background()); got != "Can't retrieve public IP." {
				t.Errorf("expected fallback, got %q", got)
			}
		})
	}
}

type memHistory struct {
	mu      sync.Mutex
	entries []string
}

func (h *memHistory) RecordLookup(kind, input, result string, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, kind+":"+input)
	return nil
}

func TestLookupRecordsHistory(t *testing.T) {
	h := &memHistory{}
	d := NewDispatcher(quiet, WithHistory(h))

	if _, err := d.Lookup(context.Background(), "johndoe"); err != nil {
		t.Fatal(err)
	}
	if len(h.entries) != 1 || h.entries[0] != "username:johndoe" {
		t.Errorf("unexpected history %v", h.entries)
	}
}

func TestExtractEmails(t *testing.T) {
	got := ExtractEmails("contact alice@example.com or bob.smith@mail.example.org today")
	if len(got) != 2 || got[0] != "alice@example.com" || got[1] != "bob.smith@mail.example.org" {
		t.Errorf("unexpected emails %v", got)
	}
	if got := ExtractEmails("nothing here"); len(got) != 0 {
		t.Errorf("expected none, got %v", got)
	}
}

func TestReportFileName(t *testing.T) {
	tests := map[string]string{
		"johndoe":          "johndoe_OSINT_Report.pdf",
		"a@b.com":          "a@b.com_OSINT_Report.pdf",
		"../../etc/passwd": "_.._etc_passwd_OSINT_Report.pdf",
		"   ":              "query_OSINT_Report.pdf",
	}
	for in, want := range tests {
		if got := ReportFileName(in); got != want {
			t.Errorf("ReportFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport(
		Result{Kind: KindPhone, Body: "Country: EG"},
		Result{Kind: KindUsername, Body: Dork("x")},
	)
	if r.Heading != "OSINT Intelligence Report" {
		t.Errorf("unexpected heading %q", r.Heading)
	}
	if r.Len() != 2 || r.Entries[0].Title != "Phone Lookup" || r.Entries[1].Title != "Username Search" {
		t.Errorf("unexpected entries %+v", r.Entries)
	}
}

func TestForRegion(t *testing.T) {
	d := NewDispatcher(quiet, WithRegion("eg"))
	us := d.ForRegion("us")

	if d.Region() != "EG" {
		t.Errorf("expected original region EG, got %q", d.Region())
	}
	if us.Region() != "US" {
		t.Errorf("expected copy region US, got %q", us.Region())
	}
	if Regions[2].String() != "+20 (EG)" {
		t.Errorf("unexpected region label %q", Regions[2].String())
	}
}

func TestPhoneUsesRegionForNationalNumbers(t *testing.T) {
	d := NewDispatcher(quiet, WithRegion("US"))
	body := d.Phone("650-253-0000")
	if !strings.Contains(body, "E.164: +16502530000") {
		t.Errorf("expected national number parsed in US, got %q", body)
	}
}
