package producers

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"shrike/internal/domain"
)

// Hosting countries with outsized shares of bulletproof-hosting abuse get a
// mild upward multiplier; the signal is deliberately weak on its own.
var hostingRiskMultipliers = map[string]float64{
	"RU": 1.15,
	"CN": 1.1,
	"KP": 1.25,
	"IR": 1.15,
	"NG": 1.1,
}

// GeoIPProducer resolves the target host and scores its hosting country
// against a local GeoLite2 database. No network call beyond DNS.
type GeoIPProducer struct {
	name     string
	reader   *geoip2.Reader
	resolver *net.Resolver
}

func NewGeoIPProducer(name, databasePath string) (*GeoIPProducer, error) {
	reader, err := geoip2.Open(databasePath)
	if err != nil {
		return nil, fmt.Errorf("producers: open geoip database: %w", err)
	}

	return &GeoIPProducer{
		name:     name,
		reader:   reader,
		resolver: net.DefaultResolver,
	}, nil
}

func (p *GeoIPProducer) Name() string {
	return p.name
}

func (p *GeoIPProducer) Close() error {
	return p.reader.Close()
}

func (p *GeoIPProducer) Analyze(ctx context.Context, scan domain.ScanContext) (domain.SignalOpinion, error) {
	host := scan.Host
	if host == "" {
		return domain.SignalOpinion{}, fmt.Errorf("producers: scan context has no host")
	}

	ip := net.ParseIP(host)
	if ip == nil {
		addrs, err := p.resolver.LookupIPAddr(ctx, host)
		if err != nil {
			return domain.SignalOpinion{}, fmt.Errorf("producers: resolve %s: %w", host, err)
		}
		if len(addrs) == 0 {
			return domain.SignalOpinion{}, fmt.Errorf("producers: no addresses for %s", host)
		}
		ip = addrs[0].IP
	}

	country, err := p.reader.Country(ip)
	if err != nil {
		return domain.SignalOpinion{}, fmt.Errorf("producers: geoip lookup %s: %w", ip, err)
	}

	isoCode := strings.ToUpper(country.Country.IsoCode)
	multiplier, flagged := hostingRiskMultipliers[isoCode]
	if !flagged {
		multiplier = 1.0
	}

	opinion := domain.SignalOpinion{
		Producer:   p.name,
		Multiplier: multiplier,
		RiskScore:  (multiplier - 0.7) / 0.6 * 100,
		Confidence: 40, // one weak signal, never decisive by itself
		Rationale:  fmt.Sprintf("target resolves to %s, hosting country %s", ip, isoCode),
	}
	if flagged {
		opinion.Confidence = 60
		opinion.KeyFactors = []string{fmt.Sprintf("hosting country %s flagged for abuse", isoCode)}
	}
	return opinion, nil
}
