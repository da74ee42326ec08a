package tariff

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	pdf "github.com/ledongthuc/pdf"
)

// Gazette is the rate table extracted from a published PURC tariff PDF.
// It carries the published defaults only; an operator's edited schedule is
// never overwritten by a gazette refresh.
type Gazette struct {
	EffectiveDate        string            `json:"effective_date,omitempty"`
	Bands                map[Class][]Band  `json:"bands"`
	ServiceChargeMonthly map[Class]float64 `json:"service_charge_monthly"`
	FetchedAt            time.Time         `json:"fetched_at"`
}

// Schedule converts the gazette band tables into a Schedule value.
func (g *Gazette) Schedule() Schedule {
	out := make(Schedule, len(g.Bands))
	for c, bands := range g.Bands {
		cp := make([]Band, len(bands))
		copy(cp, bands)
		out[c] = cp
	}
	return out
}

// ParseGazetteFromPDF opens a tariff gazette PDF at the given path,
// extracts text, and delegates to ParseGazetteFromText.
func ParseGazetteFromPDF(path string) (*Gazette, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rc, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	return ParseGazetteFromText(buf.String())
}

var (
	sectionRe   = regexp.MustCompile(`(?m)^\s*(RESIDENTIAL|NON-RESIDENTIAL)\b`)
	rangeRe     = regexp.MustCompile(`(?m)^\s*(\d+)\s*[-–]\s*(\d+)\s*kWh\s+(\d+(?:\.\d+)?)`)
	openRe      = regexp.MustCompile(`(?m)^\s*(\d+)\s*\+\s*kWh\s+(\d+(?:\.\d+)?)`)
	svcChargeRe = regexp.MustCompile(`Service Charge[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	effectiveRe = regexp.MustCompile(`Effective\s+(?:Date[:\s]*)?([0-9]{1,2}\s+\w+\s+[0-9]{4})`)
)

// ParseGazetteFromText parses the plain-text representation of a gazette
// PDF. Each class section lists closed consumption ranges ("0 - 50 kWh")
// followed by one open-ended range ("51+ kWh"); closed ranges become
// bounded bands sized by their span, the open range becomes the unbounded
// band.
func ParseGazetteFromText(text string) (*Gazette, error) {
	g := &Gazette{
		Bands:                make(map[Class][]Band),
		ServiceChargeMonthly: make(map[Class]float64),
		FetchedAt:            time.Now().UTC(),
	}

	if m := effectiveRe.FindStringSubmatch(text); len(m) == 2 {
		g.EffectiveDate = m[1]
	}

	for _, sec := range splitSections(text) {
		var class Class
		switch sec.header {
		case "RESIDENTIAL":
			class = ClassResidential
		case "NON-RESIDENTIAL":
			class = ClassNonResidential
		default:
			continue
		}

		var bands []Band
		for _, m := range rangeRe.FindAllStringSubmatch(sec.body, -1) {
			lo, _ := strconv.ParseFloat(m[1], 64)
			hi, _ := strconv.ParseFloat(m[2], 64)
			rate, _ := strconv.ParseFloat(m[3], 64)
			span := hi - lo
			if lo > 0 {
				// Published ranges are inclusive ("51 - 300" holds 250 units).
				span = hi - lo + 1
			}
			bands = append(bands, Band{Limit: Bounded(span), Rate: rate})
		}
		if m := openRe.FindStringSubmatch(sec.body); len(m) == 3 {
			rate, _ := strconv.ParseFloat(m[2], 64)
			bands = append(bands, Band{Limit: Unbounded(), Rate: rate})
		}
		if len(bands) == 0 || !bands[len(bands)-1].Limit.IsUnbounded() {
			return nil, fmt.Errorf("gazette section %s: no open-ended band found", sec.header)
		}
		g.Bands[class] = bands

		if m := svcChargeRe.FindStringSubmatch(sec.body); len(m) == 2 {
			charge, _ := strconv.ParseFloat(m[1], 64)
			g.ServiceChargeMonthly[class] = charge
		}
	}

	if len(g.Bands) == 0 {
		return nil, fmt.Errorf("no tariff sections found in gazette text")
	}
	return g, nil
}

type gazetteSection struct {
	header string
	body   string
}

// splitSections cuts the gazette text at class headers. Headers only
// match at line start, so the RESIDENTIAL substring inside a
// NON-RESIDENTIAL header cannot start a section; each body runs to the
// next header or EOF.
func splitSections(text string) []gazetteSection {
	locs := sectionRe.FindAllStringSubmatchIndex(text, -1)
	var out []gazetteSection
	for i, loc := range locs {
		header := strings.TrimSpace(text[loc[2]:loc[3]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, gazetteSection{header: header, body: text[loc[1]:end]})
	}
	return out
}
