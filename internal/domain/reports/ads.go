package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"anthrilo/internal/core/types"
	"anthrilo/internal/domain/catalog"
)

// AdROILine is the return on ad spend of one panel on one platform.
type AdROILine struct {
	PanelID          int64   `json:"panel_id"`
	PanelName        string  `json:"panel_name"`
	Platform         string  `json:"platform"`
	Campaigns        int     `json:"campaigns"`
	TotalSpend       float64 `json:"total_spend"`
	TotalRevenue     float64 `json:"total_revenue"`
	Impressions      int64   `json:"impressions"`
	Clicks           int64   `json:"clicks"`
	Conversions      int64   `json:"conversions"`
	ClickThroughRate float64 `json:"click_through_rate"`
	ROIPercentage    float64 `json:"roi_percentage"`
}

// AdROISummary totals ad spend across panels.
type AdROISummary struct {
	TotalSpend    float64 `json:"total_spend"`
	TotalRevenue  float64 `json:"total_revenue"`
	ROIPercentage float64 `json:"roi_percentage"`
	Channels      int     `json:"channels"`
}

// AdROIReport measures paid advertising against the revenue it generated.
type AdROIReport struct {
	Header
	Summary AdROISummary `json:"summary"`
	Details []AdROILine  `json:"details"`
}

// Table implements Tabular.
func (r *AdROIReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"Panel", "Platform", "Campaigns", "Spend", "Revenue", "Impressions", "Clicks", "Conversions", "CTR %", "ROI %"},
	}
	for _, d := range r.Details {
		t.Rows = append(t.Rows, []any{d.PanelName, d.Platform, d.Campaigns, d.TotalSpend, d.TotalRevenue,
			d.Impressions, d.Clicks, d.Conversions, d.ClickThroughRate, d.ROIPercentage})
	}
	return t
}

// ROI is (revenue - spend) / spend * 100, zero when nothing was spent.
func ROI(spend, revenue decimal.Decimal) decimal.Decimal {
	return types.Percent(revenue.Sub(spend), spend)
}

// AdROI returns ad ROI per panel and platform over [start, end], highest spend first.
func (s *Service) AdROI(ctx context.Context, start, end time.Time, panelID *int64) (*AdROIReport, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	return observe(ctx, s, NameAdROI, func(ctx context.Context) (*AdROIReport, error) {
		panels, err := s.panelsFor(ctx, panelID)
		if err != nil {
			return nil, err
		}
		from, to := types.DateOf(start), types.DateOf(end)
		ads, err := s.store.ListPaidAds(ctx, AdFilter{From: &from, To: &to, PanelID: panelID})
		if err != nil {
			return nil, fmt.Errorf("list paid ads: %w", err)
		}
		return buildAdROI(from, to, panels, ads, s.clock()), nil
	})
}

func buildAdROI(start, end time.Time, panels []catalog.Panel, ads []catalog.PaidAd, now time.Time) *AdROIReport {
	report := &AdROIReport{
		Header:  Header{ReportType: "Paid Ads ROI Report", GeneratedAt: now, Period: newPeriod(start, end)},
		Details: []AdROILine{},
	}

	type key struct {
		panel    int64
		platform string
	}
	type agg struct {
		campaigns   map[string]struct{}
		spend       decimal.Decimal
		revenue     decimal.Decimal
		impressions int64
		clicks      int64
		conversions int64
	}
	names := panelIndex(panels)
	groups := make(map[key]*agg)
	var order []key
	for _, ad := range ads {
		k := key{panel: ad.PanelID, platform: ad.Platform}
		a, ok := groups[k]
		if !ok {
			a = &agg{campaigns: make(map[string]struct{})}
			groups[k] = a
			order = append(order, k)
		}
		a.campaigns[ad.CampaignName] = struct{}{}
		a.spend = a.spend.Add(ad.DailySpend)
		a.revenue = a.revenue.Add(types.OrZero(ad.RevenueGenerated))
		if ad.Impressions != nil {
			a.impressions += *ad.Impressions
		}
		if ad.Clicks != nil {
			a.clicks += *ad.Clicks
		}
		if ad.Conversions != nil {
			a.conversions += *ad.Conversions
		}
	}

	type ranked struct {
		line  AdROILine
		spend decimal.Decimal
	}
	rows := make([]ranked, 0, len(order))
	totalSpend, totalRevenue := decimal.Zero, decimal.Zero
	for _, k := range order {
		a := groups[k]
		panelName := unknown
		if p, ok := names[k.panel]; ok {
			panelName = p.PanelName
		}
		totalSpend = totalSpend.Add(a.spend)
		totalRevenue = totalRevenue.Add(a.revenue)

		rows = append(rows, ranked{
			spend: a.spend,
			line: AdROILine{
				PanelID:          k.panel,
				PanelName:        panelName,
				Platform:         k.platform,
				Campaigns:        len(a.campaigns),
				TotalSpend:       types.Round2(a.spend),
				TotalRevenue:     types.Round2(a.revenue),
				Impressions:      a.impressions,
				Clicks:           a.clicks,
				Conversions:      a.conversions,
				ClickThroughRate: types.Round2(types.Percent(decimal.NewFromInt(a.clicks), decimal.NewFromInt(a.impressions))),
				ROIPercentage:    types.Round2(ROI(a.spend, a.revenue)),
			},
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].spend.GreaterThan(rows[j].spend)
	})
	for _, r := range rows {
		report.Details = append(report.Details, r.line)
	}

	report.Summary = AdROISummary{
		TotalSpend:    types.Round2(totalSpend),
		TotalRevenue:  types.Round2(totalRevenue),
		ROIPercentage: types.Round2(ROI(totalSpend, totalRevenue)),
		Channels:      len(report.Details),
	}
	return report
}
