package rank

import (
	"sort"

	"github.com/amishk599/fitwatch/internal/model"
)

// CompanyStat aggregates enriched postings of one company.
type CompanyStat struct {
	Company       string
	Postings      int
	Failed        int
	AvgOverallFit float64 // over non-failed postings
}

// Breakdown computes per-company stats over enriched postings, sorted by
// average overall fit, highest first.
func Breakdown(postings []model.Posting) []CompanyStat {
	byCompany := make(map[string]*CompanyStat)
	sums := make(map[string]float64)
	var order []string

	for _, p := range postings {
		if p.Enrichment == nil {
			continue
		}
		st, ok := byCompany[p.Company]
		if !ok {
			st = &CompanyStat{Company: p.Company}
			byCompany[p.Company] = st
			order = append(order, p.Company)
		}
		st.Postings++
		if p.Enrichment.Failed {
			st.Failed++
			continue
		}
		sums[p.Company] += p.Enrichment.OverallFit
	}

	out := make([]CompanyStat, 0, len(order))
	for _, c := range order {
		st := byCompany[c]
		if scored := st.Postings - st.Failed; scored > 0 {
			st.AvgOverallFit = sums[c] / float64(scored)
		}
		out = append(out, *st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgOverallFit > out[j].AvgOverallFit
	})
	return out
}
