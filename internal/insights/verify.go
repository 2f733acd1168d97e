package insights

import (
	"math"

	"aw-insights/internal/services"
)

// Tolerances for the consistency checks. Shares are displayed with
// one decimal, so they get a looser bound than raw sums.
const (
	relTolerance   = 1e-6
	shareTolerance = 0.1
)

// Finding is the outcome of one consistency check over the published
// figures.
type Finding struct {
	Check string  `json:"check"`
	Want  float64 `json:"want"`
	Got   float64 `json:"got"`
	OK    bool    `json:"ok"`
}

type Findings []Finding

func (fs Findings) OK() bool {
	for _, f := range fs {
		if !f.OK {
			return false
		}
	}
	return true
}

// Verify runs the arithmetic consistency checks over a snapshot: the
// channel split must sum to total revenue, shares must sum to 100%,
// and the monthly series must account for every dollar.
func Verify(snap *services.Snapshot) Findings {
	var findings Findings

	total := snap.Summary.TotalRevenue

	var channelSum float64
	var channelTx int64
	for _, ch := range snap.Channels {
		channelSum += ch.Revenue
		channelTx += int64(ch.Transactions)
	}
	findings = append(findings, relCheck("channel revenues sum to total revenue", total, channelSum))
	findings = append(findings, Finding{
		Check: "channel transactions sum to total transactions",
		Want:  float64(snap.Summary.Transactions),
		Got:   float64(channelTx),
		OK:    channelTx == snap.Summary.Transactions,
	})

	var countryShare float64
	for _, c := range snap.Countries {
		countryShare += c.Share
	}
	findings = append(findings, absCheck("country market shares sum to 100%", 100, countryShare, shareTolerance))

	var categoryShare float64
	for _, c := range snap.Categories {
		categoryShare += c.Share
	}
	findings = append(findings, absCheck("category shares sum to 100%", 100, categoryShare, shareTolerance))

	var monthlySum float64
	for _, m := range snap.Monthly {
		monthlySum += m.Revenue
	}
	findings = append(findings, relCheck("monthly revenues sum to total revenue", total, monthlySum))

	if len(snap.Churn) > 0 {
		var churnShare float64
		var churnCustomers int
		for _, b := range snap.Churn {
			churnShare += b.Share
			churnCustomers += b.Customers
		}
		findings = append(findings, absCheck("churn shares sum to 100%", 100, churnShare, shareTolerance))
		findings = append(findings, Finding{
			Check: "churn buckets cover every customer",
			Want:  float64(snap.Summary.UniqueCustomers),
			Got:   float64(churnCustomers),
			OK:    churnCustomers == snap.Summary.UniqueCustomers,
		})
	}

	return findings
}

func relCheck(name string, want, got float64) Finding {
	ok := want == got
	if !ok && want != 0 {
		ok = math.Abs(want-got)/math.Abs(want) <= relTolerance
	}
	return Finding{Check: name, Want: want, Got: got, OK: ok}
}

func absCheck(name string, want, got, tolerance float64) Finding {
	return Finding{
		Check: name,
		Want:  want,
		Got:   got,
		OK:    math.Abs(want-got) <= tolerance,
	}
}
