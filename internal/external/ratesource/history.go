package ratesource

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/pesowatch/internal/fxseries"
)

var (
	// "August 21, 2026" or "2026-08-21"
	dateCellRe = regexp.MustCompile(`^(?:[A-Z][a-z]+ \d{1,2}, \d{4}|\d{4}-\d{2}-\d{2})$`)
	// "58.1234 PHP", "1 USD = 58.1234 PHP", "₱58.1234"
	rateCellRe = regexp.MustCompile(`([\d,]+\.?\d*)\s*PHP|₱\s*([\d,]+\.?\d*)`)
	// Embedded chart payload, the fallback when table markup shifts.
	chartRowRe = regexp.MustCompile(`"date"\s*:\s*"(\d{4}-\d{2}-\d{2})"\s*,\s*"(?:rate|close|value)"\s*:\s*"?([\d.,]+)"?`)
)

// FetchDailyRates fetches every published daily close between from and
// to, one page per calendar year. Rows come back loose; callers run
// them through fxseries.Normalize and clip to the requested range.
func (c *Client) FetchDailyRates(ctx context.Context, from, to time.Time) ([]fxseries.RawObservation, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: from %s is after to %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	currentYear := time.Now().UTC().Year()
	var raw []fxseries.RawObservation

	for year := from.Year(); year <= to.Year(); year++ {
		select {
		case <-ctx.Done():
			return raw, ctx.Err()
		default:
		}

		html, err := c.fetchHTML(ctx, historyPath(year, currentYear))
		if err != nil {
			return raw, fmt.Errorf("fetch %d history: %w", year, err)
		}

		rows := parseHistoryHTML(html)
		if len(rows) == 0 {
			rows = parseChartPayload(html)
		}
		raw = append(raw, rows...)
	}

	c.logger.WithFields(map[string]interface{}{
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
		"count": len(raw),
	}).Debug("Fetched daily rates")
	return raw, nil
}

// historyPath picks the per-year table page. The current year's table
// lives at the bare path.
func historyPath(year, currentYear int) string {
	if year >= currentYear {
		return "/exchange-rate-history/usd-php"
	}
	return fmt.Sprintf("/exchange-rate-history/usd-php-%d", year)
}

// parseHistoryHTML walks the page's tables for date+rate rows.
func parseHistoryHTML(html string) []fxseries.RawObservation {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var rows []fxseries.RawObservation
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !dateCellRe.MatchString(dateText) {
			return
		}

		// The rate column position varies across page versions; take
		// the first cell that looks like a PHP amount.
		for i := 1; i < cells.Length(); i++ {
			m := rateCellRe.FindStringSubmatch(strings.TrimSpace(cells.Eq(i).Text()))
			if m == nil {
				continue
			}
			rateText := m[1]
			if rateText == "" {
				rateText = m[2]
			}
			rows = append(rows, fxseries.RawObservation{Date: dateText, Rate: rateText})
			return
		}
	})
	return rows
}

// parseChartPayload recovers rows from the embedded chart JSON.
func parseChartPayload(html string) []fxseries.RawObservation {
	matches := chartRowRe.FindAllStringSubmatch(html, -1)
	rows := make([]fxseries.RawObservation, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, fxseries.RawObservation{Date: m[1], Rate: m[2]})
	}
	return rows
}
