package osint

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	phoneFallback    = "Invalid phone number."
	emailFallback    = "Invalid email address."
	publicIPFallback = "Can't retrieve public IP."
	domainFallback   = "Unable to resolve domain."

	maxIPBody = 256
)

// Phone reports the country and carrier of a number.
func (d *Dispatcher) Phone(input string) string {
	num, err := phonenumbers.Parse(input, d.region)
	if err != nil {
		d.logger.Debug("Phone parse failed", "input", input, "error", err)
		return phoneFallback
	}

	region := phonenumbers.GetRegionCodeForNumber(num)

	country, err := phonenumbers.GetGeocodingForNumber(num, "en")
	if err != nil || country == "" {
		country = region
	}
	carrier, err := phonenumbers.GetCarrierForNumber(num, "en")
	if err != nil {
		carrier = ""
	}

	lines := []string{
		"Country: " + country,
		"Carrier: " + carrier,
		"Region: " + region,
		"E.164: " + phonenumbers.Format(num, phonenumbers.E164),
		"Valid: " + yesNo(phonenumbers.IsValidNumber(num)),
	}
	if zones, err := phonenumbers.GetTimezonesForNumber(num); err == nil && len(zones) > 0 {
		lines = append(lines, "Time zones: "+strings.Join(zones, ", "))
	}
	return strings.Join(lines, "\n")
}

// Email reports the domain of an address and, when resolvable, its mail
// exchangers.
func (d *Dispatcher) Email(ctx context.Context, input string) string {
	_, rest, ok := strings.Cut(input, "@")
	domain, _, _ := strings.Cut(rest, "@")
	domain = strings.TrimSpace(domain)
	if !ok || domain == "" {
		return emailFallback
	}

	body := fmt.Sprintf("Domain: %s\nMail server info might require MX record lookup (use `nslookup -q=mx %s`).", domain, domain)

	if d.resolver == nil {
		return body
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	records, err := d.resolver.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		if err != nil {
			d.logger.Debug("MX lookup failed", "domain", domain, "error", err)
		}
		return body
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
	hosts := make([]string, len(records))
	for i, mx := range records {
		hosts[i] = fmt.Sprintf("%s (%d)", strings.TrimSuffix(mx.Host, "."), mx.Pref)
	}
	return body + "\nMX: " + strings.Join(hosts, ", ")
}

// PublicIP fetches this machine's public address from the echo endpoint.
func (d *Dispatcher) PublicIP(ctx context.Context) string {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.ipURL, nil)
	if err != nil {
		d.logger.Warn("Bad public IP url", "url", d.ipURL, "error", err)
		return publicIPFallback
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("Public IP request failed", "error", err)
		return publicIPFallback
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		d.logger.Warn("Public IP bad status", "status", resp.StatusCode)
		return publicIPFallback
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxIPBody))
	if err != nil {
		d.logger.Warn("Public IP read failed", "error", err)
		return publicIPFallback
	}

	ip := strings.TrimSpace(string(raw))
	if net.ParseIP(ip) == nil {
		d.logger.Warn("Public IP response is not an address", "body", ip)
		return publicIPFallback
	}
	return ip
}

// Domain resolves a host name forward, then the address back to a name.
func (d *Dispatcher) Domain(ctx context.Context, input string) string {
	host := hostFromInput(input)
	if host == "" || d.resolver == nil {
		return domainFallback
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	addrs, err := d.resolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		d.logger.Debug("Host lookup failed", "host", host, "error", err)
		return domainFallback
	}

	ip := pickAddr(addrs)
	fqdn := ip
	if names, err := d.resolver.LookupAddr(ctx, ip); err == nil && len(names) > 0 {
		fqdn = strings.TrimSuffix(names[0], ".")
	}

	return fmt.Sprintf("IP: %s\nHost: %s", ip, fqdn)
}

// Dork builds a search query for manual reconnaissance.
func Dork(input string) string {
	return "Use the following Google Dork: site:* " + input
}

// pickAddr prefers an IPv4 address, matching what a classic hostname
// lookup would return.
func pickAddr(addrs []string) string {
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a
		}
	}
	return addrs[0]
}

func hostFromInput(input string) string {
	in := strings.TrimSpace(input)
	if strings.Contains(in, "://") {
		u, err := url.Parse(in)
		if err != nil {
			return ""
		}
		return u.Hostname()
	}
	in, _, _ = strings.Cut(in, "/")
	return strings.TrimSuffix(in, ".")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
