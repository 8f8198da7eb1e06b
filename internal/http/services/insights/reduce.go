package insights

import (
	"math"
	"sort"
	"time"

	"github.com/dropDatabas3/brandkit/internal/oauth/meta"
)

const rollingWindow = 7

// Meta devuelve end_time como "2006-01-02T15:04:05+0000".
var endTimeLayouts = []string{"2006-01-02T15:04:05-0700", time.RFC3339}

func parseEndTime(p *string) time.Time {
	if p == nil {
		return time.Time{}
	}
	for _, layout := range endTimeLayouts {
		if t, err := time.Parse(layout, *p); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SumLatest7 suma los 7 valores numéricos más recientes (end_time desc).
// Sin valores numéricos devuelve nil: falta de dato, no cero.
func SumLatest7(values []meta.InsightValue) *int64 {
	type point struct {
		v   float64
		end time.Time
	}
	pts := make([]point, 0, len(values))
	for _, v := range values {
		if n, ok := v.Number(); ok {
			pts = append(pts, point{v: n, end: parseEndTime(v.EndTime)})
		}
	}
	if len(pts) == 0 {
		return nil
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].end.After(pts[j].end) })
	if len(pts) > rollingWindow {
		pts = pts[:rollingWindow]
	}
	var sum float64
	for _, p := range pts {
		sum += p.v
	}
	total := int64(math.Round(sum))
	return &total
}

// EngagementRate es interacciones / seguidores * 100 con 2 decimales.
// nil si no hay seguidores.
func EngagementRate(interactions int64, followers *int64) *float64 {
	if followers == nil || *followers <= 0 {
		return nil
	}
	r := round2(float64(interactions) / float64(*followers) * 100)
	return &r
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
