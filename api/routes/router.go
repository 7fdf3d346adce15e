package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanvirhb/crm-backend/api/controllers"
	"github.com/tanvirhb/crm-backend/api/middleware"
	"github.com/tanvirhb/crm-backend/internal/complaints"
	"github.com/tanvirhb/crm-backend/internal/customers"
	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/logs"
	"github.com/tanvirhb/crm-backend/internal/metrics"
	"github.com/tanvirhb/crm-backend/internal/roles"
	"github.com/tanvirhb/crm-backend/internal/search"
	"github.com/tanvirhb/crm-backend/internal/store"
	"github.com/tanvirhb/crm-backend/internal/users"
	"github.com/tanvirhb/crm-backend/pkg/config"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    store.Store
	Verifier identity.Verifier
	Accounts identity.AccountManager
	Resolver *identity.Resolver

	Users      users.Service
	Customers  customers.Service
	Logs       logs.Service
	Complaints complaints.Service
	Metrics    metrics.Service
	Search     search.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Store, logg))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/verify", controllers.AuthVerify(d.Verifier, d.Resolver, d.Users, logg))
		r.Post("/register", controllers.AuthRegister(d.Accounts, d.Users, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Verifier, d.Resolver, logg))
			r.Get("/user", controllers.AuthProfile(d.Users, logg))
			r.Put("/user", controllers.AuthProfileUpdate(d.Users, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(d.Verifier, d.Resolver, logg))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, roles.Admins...))
			r.Get("/", controllers.UsersList(d.Users, logg))
			r.Post("/invite", controllers.UsersInvite(d.Users, logg))
			r.Put("/{id}/role", controllers.UsersChangeRole(d.Users, logg))
			r.Delete("/{id}", controllers.UsersDeactivate(d.Users, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.With(perm(logg, roles.ResourceCustomers, roles.ActionRead)).Get("/", controllers.CustomersList(d.Customers, logg))
			r.With(perm(logg, roles.ResourceCustomers, roles.ActionCreate)).Post("/", controllers.CustomersCreate(d.Customers, logg))
			r.With(perm(logg, roles.ResourceCustomers, roles.ActionRead)).Get("/{id}", controllers.CustomersGet(d.Customers, logg))
			r.With(perm(logg, roles.ResourceCustomers, roles.ActionUpdate)).Put("/{id}", controllers.CustomersUpdate(d.Customers, logg))
			r.With(perm(logg, roles.ResourceCustomers, roles.ActionDelete)).Delete("/{id}", controllers.CustomersArchive(d.Customers, logg))
			r.With(perm(logg, roles.ResourceLogs, roles.ActionRead)).Get("/{id}/logs", controllers.CustomersLogs(d.Customers, logg))
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionRead)).Get("/{id}/complaints", controllers.CustomersComplaints(d.Customers, logg))
		})

		r.Route("/logs", func(r chi.Router) {
			r.With(perm(logg, roles.ResourceLogs, roles.ActionRead)).Get("/", controllers.LogsList(d.Logs, logg))
			r.With(perm(logg, roles.ResourceLogs, roles.ActionCreate)).Post("/", controllers.LogsCreate(d.Logs, logg))
			r.With(perm(logg, roles.ResourceLogs, roles.ActionRead)).Get("/{id}", controllers.LogsGet(d.Logs, logg))
			r.With(perm(logg, roles.ResourceLogs, roles.ActionUpdate)).Put("/{id}", controllers.LogsUpdate(d.Logs, logg))
			r.With(perm(logg, roles.ResourceLogs, roles.ActionDelete)).Delete("/{id}", controllers.LogsDelete(d.Logs, logg))
		})

		r.Route("/complaints", func(r chi.Router) {
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionRead)).Get("/", controllers.ComplaintsList(d.Complaints, logg))
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionCreate)).Post("/", controllers.ComplaintsCreate(d.Complaints, logg))
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionRead)).Get("/{id}", controllers.ComplaintsGet(d.Complaints, logg))
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionUpdate)).Put("/{id}", controllers.ComplaintsUpdate(d.Complaints, logg))
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionUpdate)).Put("/{id}/status", controllers.ComplaintsUpdateStatus(d.Complaints, logg))
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionUpdate)).Post("/{id}/comments", controllers.ComplaintsAddComment(d.Complaints, logg))
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionUpdate)).Post("/{id}/updates", controllers.ComplaintsAddCustomerUpdate(d.Complaints, logg))
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionAssign)).Put("/{id}/assign", controllers.ComplaintsAssign(d.Complaints, logg))
			r.With(perm(logg, roles.ResourceComplaints, roles.ActionUpdate)).Delete("/{id}", controllers.ComplaintsClose(d.Complaints, logg))
		})

		r.Get("/metrics/summary", controllers.MetricsSummary(d.Metrics, logg))
		r.Get("/search", controllers.Search(d.Search, logg))
	})

	return r
}

func perm(logg *logger.Logger, resource, action string) func(http.Handler) http.Handler {
	return middleware.RequirePermission(logg, resource, action)
}
