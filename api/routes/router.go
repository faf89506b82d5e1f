package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orthodeskhq/orthodesk-backend/api/controllers"
	"github.com/orthodeskhq/orthodesk-backend/api/middleware"
	"github.com/orthodeskhq/orthodesk-backend/internal/address"
	"github.com/orthodeskhq/orthodesk-backend/internal/analytics"
	"github.com/orthodeskhq/orthodesk-backend/internal/auth"
	"github.com/orthodeskhq/orthodesk-backend/internal/browse"
	"github.com/orthodeskhq/orthodesk-backend/internal/calls"
	"github.com/orthodeskhq/orthodesk-backend/internal/folders"
	"github.com/orthodeskhq/orthodesk-backend/internal/media"
	"github.com/orthodeskhq/orthodesk-backend/internal/partners"
	"github.com/orthodeskhq/orthodesk-backend/internal/practices"
	"github.com/orthodeskhq/orthodesk-backend/internal/referrals"
	"github.com/orthodeskhq/orthodesk-backend/internal/socialposts"
	"github.com/orthodeskhq/orthodesk-backend/internal/tour"
	"github.com/orthodeskhq/orthodesk-backend/internal/uploads"
	"github.com/orthodeskhq/orthodesk-backend/pkg/auth/session"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/db"
	"github.com/orthodeskhq/orthodesk-backend/pkg/enums"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
	"github.com/orthodeskhq/orthodesk-backend/pkg/redis"
	"github.com/orthodeskhq/orthodesk-backend/pkg/storage/gcs"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Services bundles every domain service the router mounts.
type Services struct {
	Auth        auth.Service
	Register    auth.RegisterService
	Switch      auth.SwitchPracticeService
	Practices   practices.Service
	Memberships middleware.MembershipChecker
	Media       media.Service
	Uploads     uploads.Service
	Folders     folders.Service
	Browse      browse.Service
	Posts       socialposts.Service
	Partners    *partners.Service
	Referrals   *referrals.Service
	Calls       *calls.Service
	Analytics   *analytics.Service
	Tour        *tour.Service
	Address     address.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	sessions sessionManager,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, gcsClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
		r.Post("/switch-practice", controllers.AuthSwitchPractice(svcs.Switch, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		// Tour state hangs off the user, not the practice, so it sits
		// outside the practice-scoped group.
		r.Route("/v1/tours/{tourName}", func(r chi.Router) {
			r.Get("/", controllers.TourState(svcs.Tour, logg))
			r.Post("/start", controllers.TourStart(svcs.Tour, logg))
			r.Post("/next", controllers.TourNext(svcs.Tour, logg))
			r.Post("/prev", controllers.TourPrev(svcs.Tour, logg))
			r.Post("/close", controllers.TourClose(svcs.Tour, logg))
			r.Delete("/", controllers.TourReset(svcs.Tour, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.PracticeContext(logg))
			r.Get("/ping", controllers.PrivatePing())

			r.Get("/v1/platforms/constraint", controllers.PlatformConstraint(logg))

			r.Route("/v1/practices", func(r chi.Router) {
				r.Get("/me", controllers.PracticeProfile(svcs.Practices, logg))
				r.Put("/me", controllers.PracticeUpdate(svcs.Practices, logg))
				r.Route("/me/users", func(r chi.Router) {
					r.Use(middleware.RequirePracticeRoles(svcs.Memberships, logg, enums.MemberRoleOwner, enums.MemberRoleAdmin))
					r.Get("/", controllers.PracticeUsers(svcs.Practices, logg))
					r.Post("/invite", controllers.PracticeInvite(svcs.Practices, logg))
					r.Delete("/{userId}", controllers.PracticeRemoveUser(svcs.Practices, logg))
				})
			})

			r.Route("/v1/address", func(r chi.Router) {
				r.Get("/suggest", controllers.AddressSuggest(svcs.Address, logg))
				r.Post("/resolve", controllers.AddressResolve(svcs.Address, logg))
			})

			r.Route("/v1/partners", func(r chi.Router) {
				r.Get("/", controllers.PartnerList(svcs.Partners, logg))
				r.Post("/", controllers.PartnerCreate(svcs.Partners, logg))
				r.Get("/{partnerId}", controllers.PartnerDetail(svcs.Partners, logg))
				r.Patch("/{partnerId}", controllers.PartnerUpdate(svcs.Partners, logg))
				r.Post("/{partnerId}/archive", controllers.PartnerArchive(svcs.Partners, logg))
				r.Post("/{partnerId}/unarchive", controllers.PartnerUnarchive(svcs.Partners, logg))
			})

			r.Route("/v1/referrals", func(r chi.Router) {
				r.Get("/", controllers.ReferralList(svcs.Referrals, logg))
				r.Post("/", controllers.ReferralCreate(svcs.Referrals, logg))
				r.Get("/{referralId}", controllers.ReferralDetail(svcs.Referrals, logg))
				r.Patch("/{referralId}", controllers.ReferralUpdate(svcs.Referrals, logg))
				r.Post("/{referralId}/transition", controllers.ReferralTransition(svcs.Referrals, logg))
				r.Delete("/{referralId}", controllers.ReferralDelete(svcs.Referrals, logg))
			})

			r.Route("/v1/calls", func(r chi.Router) {
				r.Get("/", controllers.CallList(svcs.Calls, logg))
				r.Post("/", controllers.CallLog(svcs.Calls, logg))
				r.Get("/{callId}", controllers.CallDetail(svcs.Calls, logg))
				r.Patch("/{callId}", controllers.CallUpdate(svcs.Calls, logg))
				r.Delete("/{callId}", controllers.CallDelete(svcs.Calls, logg))
			})

			r.Route("/v1/analytics", func(r chi.Router) {
				r.Get("/pipeline", controllers.AnalyticsPipeline(svcs.Analytics, logg))
				r.Get("/calls", controllers.AnalyticsCalls(svcs.Analytics, logg))
				r.Get("/leaderboard", controllers.AnalyticsLeaderboard(svcs.Analytics, logg))
				r.Get("/trend", controllers.AnalyticsTrend(svcs.Analytics, logg))
				r.Get("/media", controllers.AnalyticsMediaUsage(svcs.Analytics, logg))
			})

			r.Route("/v1/folders", func(r chi.Router) {
				r.Get("/", controllers.FolderList(svcs.Folders, logg))
				r.Post("/", controllers.FolderCreate(svcs.Folders, logg))
				r.Get("/children", controllers.FolderChildren(svcs.Folders, logg))
				r.Get("/{folderId}", controllers.FolderDetail(svcs.Folders, logg))
				r.Patch("/{folderId}", controllers.FolderRename(svcs.Folders, logg))
				r.Delete("/{folderId}", controllers.FolderDelete(svcs.Folders, logg))
			})

			r.Route("/v1/media", func(r chi.Router) {
				r.Get("/", controllers.MediaList(svcs.Media, logg))
				r.Get("/search", controllers.MediaSearch(svcs.Media, logg))
				r.Get("/tags", controllers.MediaTags(svcs.Media, logg))
				r.Post("/move", controllers.MediaMove(svcs.Media, logg))
				r.Get("/{mediaId}", controllers.MediaDetail(svcs.Media, logg))
				r.Put("/{mediaId}/tags", controllers.MediaUpdateTags(svcs.Media, logg))
				r.Delete("/{mediaId}", controllers.MediaDelete(svcs.Media, logg))
			})

			r.Route("/v1/uploads", func(r chi.Router) {
				r.Post("/sessions", controllers.UploadSessionCreate(svcs.Uploads, logg))
				r.Route("/sessions/{sessionId}", func(r chi.Router) {
					r.Get("/", controllers.UploadSessionGet(svcs.Uploads, logg))
					r.Put("/platforms", controllers.UploadSessionSetPlatforms(svcs.Uploads, logg))
					r.Post("/files", controllers.UploadSessionAddFiles(svcs.Uploads, logg))
					r.Delete("/files/{index}", controllers.UploadSessionRemoveFile(svcs.Uploads, logg))
					r.Post("/submit", controllers.UploadSessionSubmit(svcs.Uploads, logg))
					r.Delete("/", controllers.UploadSessionCancel(svcs.Uploads, logg))
				})
				r.Post("/assets/{assetId}/finalize", controllers.UploadFinalize(svcs.Uploads, logg))
			})

			r.Route("/v1/picker", func(r chi.Router) {
				r.Post("/", controllers.PickerOpen(svcs.Browse, logg))
				r.Route("/{pickerId}", func(r chi.Router) {
					r.Post("/navigate", controllers.PickerNavigate(svcs.Browse, logg))
					r.Put("/filters", controllers.PickerSetFilters(svcs.Browse, logg))
					r.Post("/tags/toggle", controllers.PickerToggleTag(svcs.Browse, logg))
					r.Delete("/tags", controllers.PickerClearTags(svcs.Browse, logg))
					r.Post("/selection", controllers.PickerToggleSelection(svcs.Browse, logg))
					r.Post("/confirm", controllers.PickerConfirm(svcs.Browse, logg))
					r.Delete("/", controllers.PickerCancel(svcs.Browse, logg))
				})
			})

			r.Route("/v1/posts", func(r chi.Router) {
				r.Use(middleware.RequirePracticeRoles(svcs.Memberships, logg,
					enums.MemberRoleOwner, enums.MemberRoleAdmin, enums.MemberRoleMarketing))
				r.Get("/", controllers.PostList(svcs.Posts, logg))
				r.Post("/", controllers.PostCompose(svcs.Posts, logg))
				r.Get("/{postId}", controllers.PostDetail(svcs.Posts, logg))
				r.Put("/{postId}", controllers.PostUpdate(svcs.Posts, logg))
				r.Post("/{postId}/cancel", controllers.PostCancel(svcs.Posts, logg))
				r.Delete("/{postId}", controllers.PostDelete(svcs.Posts, logg))
			})
		})
	})

	return r
}
