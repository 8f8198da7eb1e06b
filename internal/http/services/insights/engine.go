// Package insights lee métricas de Instagram con los tokens guardados,
// persiste un snapshot diario por cuenta y arma el historial.
//
// Hay dos caminos: el on-demand (ForTenant, un cliente autenticado) y el
// programado (Harvester, todas las cuentas conectadas). Una cuenta con
// problemas nunca corta el lote.
package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/domain/social"
	dto "github.com/dropDatabas3/brandkit/internal/http/dto/insights"
	"github.com/dropDatabas3/brandkit/internal/metrics"
	"github.com/dropDatabas3/brandkit/internal/oauth/meta"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
	"github.com/dropDatabas3/brandkit/internal/security/secretbox"
)

const (
	recentPostsLimit   = 12
	defaultHistoryDays = 30
	defaultWorkers     = 4
)

// Reason codes por cuenta (harvest).
const (
	ReasonMissingOAuthData   = "missing_oauth_data"
	ReasonDecryptFailed      = "decrypt_failed"
	ReasonGraphReadFailed    = "graph_read_failed"
	ReasonSnapshotSaveFailed = "snapshot_save_failed"
)

// Mensajes por cuenta del camino on-demand.
const (
	msgMissingOAuthData = "Cuenta sin token OAuth válido o sin ID de Instagram."
	msgDecryptFailed    = "No se pudo descifrar el token de la cuenta."
	msgGraphReadFailed  = "Meta Graph API rechazó la lectura de perfil o publicaciones."
)

var accountMessages = map[string]string{
	ReasonMissingOAuthData: msgMissingOAuthData,
	ReasonDecryptFailed:    msgDecryptFailed,
	ReasonGraphReadFailed:  msgGraphReadFailed,
}

// ErrCipherMissing: no hay clave de cifrado configurada.
var ErrCipherMissing = errors.New("insights: token encryption key not configured")

// GraphReader es el subconjunto de meta.Client usado para leer métricas.
type GraphReader interface {
	ReadProfile(ctx context.Context, igID, token, fields string) meta.Result[meta.Profile]
	ReadInsights(ctx context.Context, igID, token string, metricNames []string, period string) meta.Result[meta.InsightsResponse]
	ListMedia(ctx context.Context, igID, token, fields string, limit int) meta.Result[meta.MediaResponse]
}

// Opener descifra tokens guardados.
type Opener interface {
	Decrypt(s secretbox.EncryptedSecret) (string, error)
}

// Deps contiene las dependencias del engine. Cipher nil equivale a clave
// no configurada.
type Deps struct {
	Accounts    repository.AccountRepository
	Snapshots   repository.SnapshotRepository
	Graph       GraphReader
	Cipher      Opener
	Now         func() time.Time
	Workers     int
	HistoryDays int
}

// Engine lee métricas por cuenta. Seguro para uso concurrente.
type Engine struct {
	deps Deps
}

func NewEngine(d Deps) *Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Workers <= 0 {
		d.Workers = defaultWorkers
	}
	if d.HistoryDays <= 0 {
		d.HistoryDays = defaultHistoryDays
	}
	return &Engine{deps: d}
}

// collected es el resultado de leer una cuenta.
type collected struct {
	account social.Account
	// reason != "" implica que la cuenta no pudo leerse.
	reason string

	profile       meta.Profile
	posts         []dto.Post
	reach7d       *int64
	impressions7d *int64
	profileViews  *int64
	interactions  int64
	engagement    *float64
	status        dto.InsightsStatus
	statusMessage string
}

func (c collected) ok() bool { return c.reason == "" }

func (c collected) snapshot(date string) social.DailySnapshot {
	return social.DailySnapshot{
		ClientID:                c.account.ClientID,
		SocialAccountID:         c.account.ID,
		SnapshotDate:            date,
		Followers:               c.profile.FollowersCount,
		Reach7d:                 c.reach7d,
		Impressions7d:           c.impressions7d,
		ProfileViews7d:          c.profileViews,
		InteractionsRecentPosts: c.interactions,
		EngagementRate:          c.engagement,
	}
}

// collect descifra el token de la cuenta y lee perfil, insights y media en paralelo.
func (e *Engine) collect(ctx context.Context, acc social.Account) collected {
	out := collected{account: acc, posts: []dto.Post{}, status: dto.StatusUnavailable}
	log := logger.From(ctx).With(logger.AccountID(acc.ID), logger.TenantID(acc.ClientID))

	sealed, ok := acc.Metadata.PageToken()
	igID := acc.ExternalID()
	if !ok || igID == "" {
		out.reason = ReasonMissingOAuthData
		return out
	}
	token, err := e.deps.Cipher.Decrypt(sealed)
	if err != nil {
		log.Warn("page token decrypt failed", logger.Err(err))
		out.reason = ReasonDecryptFailed
		return out
	}

	var (
		prof  meta.Result[meta.Profile]
		ins   meta.Result[meta.InsightsResponse]
		media meta.Result[meta.MediaResponse]
	)
	var g errgroup.Group
	g.Go(func() error {
		prof = e.deps.Graph.ReadProfile(ctx, igID, token, meta.ProfileMetricsFields)
		return nil
	})
	g.Go(func() error {
		ins = e.deps.Graph.ReadInsights(ctx, igID, token, meta.DefaultInsightMetrics, meta.PeriodDay)
		return nil
	})
	g.Go(func() error {
		media = e.deps.Graph.ListMedia(ctx, igID, token, meta.MediaMetricsFields, recentPostsLimit)
		return nil
	})
	_ = g.Wait()

	if !prof.OK || !media.OK {
		out.reason = ReasonGraphReadFailed
		return out
	}

	out.profile = prof.Data
	for _, m := range media.Data.Data {
		p := toPost(m)
		out.interactions += p.Interactions
		out.posts = append(out.posts, p)
	}
	out.engagement = EngagementRate(out.interactions, out.profile.FollowersCount)

	if !ins.OK {
		kind := Classify(ins.Status, ins.Err)
		out.status = dto.StatusUnavailable
		out.statusMessage = Guidance(kind)
		log.Info("insights unavailable", logger.Status(ins.Status), logger.String("detail", ins.Failed()))
		return out
	}
	if m, found := ins.Data.Metric("reach"); found {
		out.reach7d = SumLatest7(m.Values)
	}
	if m, found := ins.Data.Metric("impressions"); found {
		out.impressions7d = SumLatest7(m.Values)
	}
	if m, found := ins.Data.Metric("profile_views"); found {
		out.profileViews = SumLatest7(m.Values)
	}
	if out.reach7d == nil && out.impressions7d == nil && out.profileViews == nil {
		out.status = dto.StatusLimited
		out.statusMessage = MessageLimited
	} else {
		out.status = dto.StatusOK
	}
	return out
}

func toPost(m meta.Media) dto.Post {
	var likes, comments int64
	if m.LikeCount != nil {
		likes = *m.LikeCount
	}
	if m.CommentsCount != nil {
		comments = *m.CommentsCount
	}
	p := dto.Post{
		ID:           deref(m.ID),
		Caption:      deref(m.Caption),
		MediaType:    deref(m.MediaType),
		Permalink:    m.Permalink,
		PublishedAt:  m.Timestamp,
		LikeCount:    likes,
		CommentCount: comments,
		Interactions: likes + comments,
		PreviewURL:   m.ThumbnailURL,
	}
	if p.MediaType == "" {
		p.MediaType = "UNKNOWN"
	}
	if p.PreviewURL == nil {
		p.PreviewURL = m.MediaURL
	}
	return p
}

// collectAll lee las cuentas con a lo sumo Workers en paralelo.
func (e *Engine) collectAll(ctx context.Context, accounts []social.Account, each func(int, collected)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.deps.Workers)
	for i := range accounts {
		g.Go(func() error {
			each(i, e.collect(gctx, accounts[i]))
			return nil
		})
	}
	_ = g.Wait()
}

// ForTenant devuelve las métricas de las cuentas de Instagram conectadas del
// cliente, guarda el snapshot del día de las que se pudieron leer y adjunta
// el historial de los últimos HistoryDays días.
func (e *Engine) ForTenant(ctx context.Context, tenantID string) ([]dto.AccountInsights, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("insights"), logger.Op("ForTenant"))

	if e.deps.Cipher == nil {
		return nil, ErrCipherMissing
	}
	accounts, err := e.deps.Accounts.ListConnected(ctx, tenantID, social.PlatformInstagram)
	if err != nil {
		return nil, fmt.Errorf("list connected accounts: %w", err)
	}
	if len(accounts) == 0 {
		return []dto.AccountInsights{}, nil
	}

	results := make([]collected, len(accounts))
	e.collectAll(ctx, accounts, func(i int, c collected) { results[i] = c })

	now := e.deps.Now()
	today := social.SnapshotDate(now)
	ids := make([]string, 0, len(results))
	for _, c := range results {
		ids = append(ids, c.account.ID)
		if !c.ok() {
			continue
		}
		metrics.RecordInsightsStatus(string(c.status))
		if err := e.deps.Snapshots.Upsert(ctx, c.snapshot(today)); err != nil {
			log.Error("snapshot upsert failed", logger.AccountID(c.account.ID), logger.Err(err))
		}
	}

	from := social.SnapshotDate(now.AddDate(0, 0, -(e.deps.HistoryDays - 1)))
	history, err := e.deps.Snapshots.History(ctx, tenantID, ids, from)
	if err != nil {
		log.Error("history read failed", logger.Err(err))
		history = nil
	}

	out := make([]dto.AccountInsights, 0, len(results))
	for _, c := range results {
		out = append(out, toAccountInsights(c, history[c.account.ID]))
	}
	return out, nil
}

func toAccountInsights(c collected, history []social.DailySnapshot) dto.AccountInsights {
	a := dto.AccountInsights{
		AccountID:               c.account.ID,
		AccountName:             c.account.AccountName,
		AccountHandle:           c.account.AccountHandle,
		Platform:                string(social.PlatformInstagram),
		Followers:               c.profile.FollowersCount,
		Following:               c.profile.FollowsCount,
		MediaCount:              c.profile.MediaCount,
		Reach7d:                 c.reach7d,
		Impressions7d:           c.impressions7d,
		ProfileViews7d:          c.profileViews,
		InteractionsRecentPosts: c.interactions,
		EngagementRate:          c.engagement,
		InsightsStatus:          c.status,
		InsightsMessage:         c.statusMessage,
		Posts:                   c.posts,
		History:                 make([]dto.HistoryPoint, 0, len(history)),
	}
	if !c.ok() {
		a.Error = accountMessages[c.reason]
	}
	for _, s := range history {
		interactions := s.InteractionsRecentPosts
		a.History = append(a.History, dto.HistoryPoint{
			Date:                    s.SnapshotDate,
			Followers:               s.Followers,
			Reach7d:                 s.Reach7d,
			Impressions7d:           s.Impressions7d,
			ProfileViews7d:          s.ProfileViews7d,
			InteractionsRecentPosts: &interactions,
			EngagementRate:          s.EngagementRate,
		})
	}
	return a
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
