package social

import "time"

// SnapshotDateLayout es el formato de snapshot_date (día calendario UTC).
const SnapshotDateLayout = "2006-01-02"

// DailySnapshot es la foto diaria de métricas de una cuenta.
// Clave: (SocialAccountID, SnapshotDate). Todo es nullable salvo
// InteractionsRecentPosts (sin posts es un cero real).
type DailySnapshot struct {
	ClientID                string
	SocialAccountID         string
	SnapshotDate            string
	Followers               *int64
	Reach7d                 *int64
	Impressions7d           *int64
	ProfileViews7d          *int64
	InteractionsRecentPosts int64
	EngagementRate          *float64
}

// SnapshotDate formatea t como día UTC.
func SnapshotDate(t time.Time) string {
	return t.UTC().Format(SnapshotDateLayout)
}
