package market

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// DomainCheck is the availability verdict for one brand name.
type DomainCheck struct {
	Domain       string         `json:"domain"`
	Available    bool           `json:"available"`
	Status       string         `json:"status"`
	Alternatives []DomainOption `json:"alternatives,omitempty"`
	CheckedAt    time.Time      `json:"checked_at"`
}

// DomainOption is one suggested or alternative domain.
type DomainOption struct {
	Domain         string `json:"domain"`
	Available      *bool  `json:"available,omitempty"`
	Priority       string `json:"priority,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// resolveHost reports whether a host resolves. Swappable in tests.
var resolveHost = func(ctx context.Context, host string) (bool, error) {
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, err
	}
	return len(addrs) > 0, nil
}

// DomainBase reduces a brand name to lowercase alphanumerics.
func DomainBase(name string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(name), "")
}

// NormalizeDomain turns a brand name or URL into a registrable domain. Bare
// names get ".com".
func NormalizeDomain(name string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	if !strings.Contains(s, ".") {
		base := DomainBase(s)
		if base == "" {
			return "", fmt.Errorf("domain: %q has no usable characters", name)
		}
		return base + ".com", nil
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(s)
	if err != nil {
		return "", fmt.Errorf("domain: %w", err)
	}
	return d, nil
}

// CheckDomainAvailability treats a resolving domain as taken. Alternatives
// are checked in parallel only when the primary is taken.
func CheckDomainAvailability(ctx context.Context, name string) (*DomainCheck, error) {
	domain, err := NormalizeDomain(name)
	if err != nil {
		return nil, err
	}
	dc := &DomainCheck{Domain: domain, CheckedAt: time.Now().UTC()}

	taken, err := lookupDomain(ctx, domain)
	if err != nil {
		dc.Status = "unknown"
		logSkip("domain", err)
		return dc, nil
	}
	dc.Available = !taken
	if dc.Available {
		dc.Status = "available"
		return dc, nil
	}
	dc.Status = "taken"

	base := DomainBase(strings.TrimSuffix(domain, "."+tldOf(domain)))
	var alts []DomainOption
	for _, d := range []string{base + "app.com", base + "pro.com", base + "hub.com", "get" + base + ".com", base + "io.com"} {
		alts = append(alts, DomainOption{Domain: d})
	}
	dc.Alternatives = checkOptions(ctx, alts)
	return dc, nil
}

func tldOf(domain string) string {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return suffix
}

func lookupDomain(ctx context.Context, domain string) (bool, error) {
	engine.IncrDomainLookups()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return resolveHost(ctx, domain)
}

// checkOptions resolves every domain concurrently. Failed lookups leave
// Available nil.
func checkOptions(ctx context.Context, options []DomainOption) []DomainOption {
	tasks := make([]engine.Task[bool], len(options))
	for i, o := range options {
		tasks[i] = engine.Task[bool]{
			Name: o.Domain,
			Run: func(ctx context.Context) (bool, error) {
				return lookupDomain(ctx, o.Domain)
			},
		}
	}
	opts := engine.Cfg.Parallel
	opts.Workers = 5
	opts.RequestDelay = 0
	opts.TaskTimeout = 6 * time.Second
	opts.CollectTimeout = 10 * time.Second
	outcomes, _ := engine.RunParallel(ctx, tasks, opts)

	out := make([]DomainOption, len(outcomes))
	for i, o := range outcomes {
		out[i] = options[i]
		if o.Err == nil {
			avail := !o.Value
			out[i].Available = &avail
		}
	}
	return out
}
