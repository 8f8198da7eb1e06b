// Package insights contiene los DTOs de métricas de cuentas sociales.
package insights

// InsightsStatus describe qué tan completas vinieron las métricas de Meta.
type InsightsStatus string

const (
	StatusOK          InsightsStatus = "ok"
	StatusLimited     InsightsStatus = "limited"
	StatusUnavailable InsightsStatus = "unavailable"
)

// Post es una publicación reciente con sus interacciones.
type Post struct {
	ID           string  `json:"id"`
	Caption      string  `json:"caption"`
	MediaType    string  `json:"mediaType"`
	Permalink    *string `json:"permalink"`
	PublishedAt  *string `json:"publishedAt"`
	LikeCount    int64   `json:"likeCount"`
	CommentCount int64   `json:"commentCount"`
	Interactions int64   `json:"interactions"`
	PreviewURL   *string `json:"previewUrl"`
}

// HistoryPoint es un snapshot diario.
type HistoryPoint struct {
	Date                    string   `json:"date"`
	Followers               *int64   `json:"followers"`
	Reach7d                 *int64   `json:"reach7d"`
	Impressions7d           *int64   `json:"impressions7d"`
	ProfileViews7d          *int64   `json:"profileViews7d"`
	InteractionsRecentPosts *int64   `json:"interactionsRecentPosts"`
	EngagementRate          *float64 `json:"engagementRate"`
}

// AccountInsights es el resultado por cuenta. Error != "" implica que no se
// pudo leer la cuenta y las métricas quedan en null.
type AccountInsights struct {
	AccountID               string         `json:"accountId"`
	AccountName             string         `json:"accountName"`
	AccountHandle           *string        `json:"accountHandle"`
	Platform                string         `json:"platform"`
	Followers               *int64         `json:"followers"`
	Following               *int64         `json:"following"`
	MediaCount              *int64         `json:"mediaCount"`
	Reach7d                 *int64         `json:"reach7d"`
	Impressions7d           *int64         `json:"impressions7d"`
	ProfileViews7d          *int64         `json:"profileViews7d"`
	InteractionsRecentPosts int64          `json:"interactionsRecentPosts"`
	EngagementRate          *float64       `json:"engagementRate"`
	InsightsStatus          InsightsStatus `json:"insightsStatus"`
	InsightsMessage         string         `json:"insightsMessage,omitempty"`
	Posts                   []Post         `json:"posts"`
	History                 []HistoryPoint `json:"history"`
	Error                   string         `json:"error,omitempty"`
}

// Response es la respuesta de GET /api/client/social-accounts/insights.
type Response struct {
	Insights []AccountInsights `json:"insights"`
}

// HarvestFailure es una cuenta que no pudo guardar snapshot.
type HarvestFailure struct {
	AccountID string `json:"accountId"`
	Reason    string `json:"reason"`
}

// HarvestReport es la respuesta de GET /api/cron/social-snapshots.
type HarvestReport struct {
	OK        bool             `json:"ok"`
	Date      string           `json:"date"`
	Processed int              `json:"processed"`
	Saved     int              `json:"saved"`
	Failed    int              `json:"failed"`
	Failures  []HarvestFailure `json:"failures"`
}
