package meta

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Campos pedidos a la Graph API. Todo lo que vuelve es opcional: el schema de
// Meta no está garantizado, por eso los tipos usan punteros.
const (
	PagesFields          = "id,name,access_token,instagram_business_account{id,username,name}"
	ProfileLinkFields    = "id,username,name,profile_picture_url,biography,media_count"
	ProfileMetricsFields = "id,username,followers_count,follows_count,media_count,profile_picture_url"
	MediaSampleFields    = "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp"
	MediaMetricsFields   = "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp,like_count,comments_count"

	PeriodDay = "day"
)

// DefaultInsightMetrics son las métricas de cuenta que se leen por día.
var DefaultInsightMetrics = []string{"impressions", "reach", "profile_views"}

// TokenResponse es la respuesta de oauth/access_token.
type TokenResponse struct {
	AccessToken *string `json:"access_token"`
	TokenType   *string `json:"token_type"`
	ExpiresIn   *int64  `json:"expires_in"`
}

// BusinessAccount es la cuenta de Instagram Business vinculada a una página.
type BusinessAccount struct {
	ID       *string `json:"id"`
	Username *string `json:"username"`
	Name     *string `json:"name"`
}

// Page es una página de Facebook administrada por el usuario.
type Page struct {
	ID                       *string          `json:"id"`
	Name                     *string          `json:"name"`
	AccessToken              *string          `json:"access_token"`
	InstagramBusinessAccount *BusinessAccount `json:"instagram_business_account"`
}

// PagesResponse es la respuesta de me/accounts.
type PagesResponse struct {
	Data []Page `json:"data"`
}

// FirstWithBusinessAccount devuelve la primera página con cuenta de Instagram vinculada.
func (p PagesResponse) FirstWithBusinessAccount() (Page, bool) {
	for _, pg := range p.Data {
		if pg.InstagramBusinessAccount != nil && str(pg.InstagramBusinessAccount.ID) != "" {
			return pg, true
		}
	}
	return Page{}, false
}

// Profile es un nodo de usuario de Instagram.
type Profile struct {
	ID                *string `json:"id"`
	Username          *string `json:"username"`
	Name              *string `json:"name"`
	ProfilePictureURL *string `json:"profile_picture_url"`
	Biography         *string `json:"biography"`
	MediaCount        *int64  `json:"media_count"`
	FollowersCount    *int64  `json:"followers_count"`
	FollowsCount      *int64  `json:"follows_count"`
}

// UnmarshalJSON tolera contadores con otro tipo (string, float): un campo
// raro queda en nil en vez de invalidar todo el perfil.
func (p *Profile) UnmarshalJSON(b []byte) error {
	type plain Profile
	var aux struct {
		plain
		MediaCount     json.RawMessage `json:"media_count"`
		FollowersCount json.RawMessage `json:"followers_count"`
		FollowsCount   json.RawMessage `json:"follows_count"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = Profile(aux.plain)
	p.MediaCount = count(aux.MediaCount)
	p.FollowersCount = count(aux.FollowersCount)
	p.FollowsCount = count(aux.FollowsCount)
	return nil
}

// InsightValue es un punto de una métrica. Value puede venir como número u objeto.
type InsightValue struct {
	Value   json.RawMessage `json:"value"`
	EndTime *string         `json:"end_time"`
}

// Number devuelve el valor si es numérico.
func (v InsightValue) Number() (float64, bool) {
	if len(v.Value) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(v.Value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

type InsightMetric struct {
	Name   *string        `json:"name"`
	Period *string        `json:"period"`
	Values []InsightValue `json:"values"`
}

type InsightsResponse struct {
	Data []InsightMetric `json:"data"`
}

// Metric busca una métrica por nombre.
func (r InsightsResponse) Metric(name string) (InsightMetric, bool) {
	for _, m := range r.Data {
		if str(m.Name) == name {
			return m, true
		}
	}
	return InsightMetric{}, false
}

// Media es una publicación de Instagram.
type Media struct {
	ID            *string `json:"id"`
	Caption       *string `json:"caption"`
	MediaType     *string `json:"media_type"`
	MediaURL      *string `json:"media_url"`
	ThumbnailURL  *string `json:"thumbnail_url"`
	Permalink     *string `json:"permalink"`
	Timestamp     *string `json:"timestamp"`
	LikeCount     *int64  `json:"like_count"`
	CommentsCount *int64  `json:"comments_count"`
}

func (m *Media) UnmarshalJSON(b []byte) error {
	type plain Media
	var aux struct {
		plain
		LikeCount     json.RawMessage `json:"like_count"`
		CommentsCount json.RawMessage `json:"comments_count"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*m = Media(aux.plain)
	m.LikeCount = count(aux.LikeCount)
	m.CommentsCount = count(aux.CommentsCount)
	return nil
}

type MediaResponse struct {
	Data []Media `json:"data"`
}

// GraphError es el payload {"error":{...}} de Meta.
type GraphError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FBTraceID string `json:"fbtrace_id"`
}

type errorEnvelope struct {
	Error *GraphError `json:"error"`
}

// count interpreta un contador de Meta: número, número entre comillas o nil.
func count(raw json.RawMessage) *int64 {
	v := strings.TrimSpace(string(raw))
	if v == "" || v == "null" {
		return nil
	}
	if uq, err := strconv.Unquote(v); err == nil {
		v = strings.TrimSpace(uq)
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
