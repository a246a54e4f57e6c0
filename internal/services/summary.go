package services

import "strconv"

// SectionProgress is the per-section slice of a progress summary. Score is
// the 0-100 maturity score averaged from answered linear-scale questions,
// or -1 when the section has none answered.
type SectionProgress struct {
	SectionID string  `json:"section_id"`
	Title     string  `json:"title"`
	Answered  int     `json:"answered"`
	Total     int     `json:"total"`
	Score     float64 `json:"score"`
}

// ProgressSummary feeds the dashboard widgets: overall completion plus one
// entry per section. Always recomputed, never stored.
type ProgressSummary struct {
	Answered int               `json:"answered"`
	Total    int               `json:"total"`
	Percent  float64           `json:"percent"`
	Sections []SectionProgress `json:"sections"`
}

// BuildProgress derives the summary from a catalog and a response
// snapshot.
func BuildProgress(c *Catalog, responses map[string]Response) ProgressSummary {
	out := ProgressSummary{Total: c.TotalQuestionCount()}
	for _, sec := range c.SectionsInOrder() {
		qs := c.bySection[sec.ID]
		sp := SectionProgress{SectionID: sec.ID, Title: sec.Title, Total: len(qs), Score: -1}
		var scaleSum float64
		var scaleN int
		for _, q := range qs {
			r, ok := responses[q.ID]
			if !ok || r.Value.IsEmpty() {
				continue
			}
			sp.Answered++
			if q.Type == QuestionLinearScale && q.Scale != nil {
				if raw, err := strconv.Atoi(r.Value.Text); err == nil {
					scaleSum += NormalizeScale(raw, q.Scale.Min, q.Scale.Max)
					scaleN++
				}
			}
		}
		if scaleN > 0 {
			sp.Score = scaleSum / float64(scaleN)
		}
		out.Answered += sp.Answered
		out.Sections = append(out.Sections, sp)
	}
	if out.Total > 0 {
		out.Percent = float64(out.Answered) / float64(out.Total) * 100
	}
	return out
}

// NormalizeScale maps a raw linear-scale value onto 0-100 given the scale
// bounds. Out-of-range values are clamped.
func NormalizeScale(raw, min, max int) float64 {
	if max <= min {
		return 0
	}
	if raw < min {
		raw = min
	}
	if raw > max {
		raw = max
	}
	return float64(raw-min) / float64(max-min) * 100
}
