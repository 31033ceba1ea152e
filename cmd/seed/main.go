// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"fulqrun/backend/internal/config"
	contactdomain "fulqrun/backend/internal/contact/domain"
	contactrepo "fulqrun/backend/internal/contact/repository"
	"fulqrun/backend/internal/db"
	identitydomain "fulqrun/backend/internal/identity/domain"
	identityrepo "fulqrun/backend/internal/identity/repository"
	kpidomain "fulqrun/backend/internal/kpi/domain"
	kpirepo "fulqrun/backend/internal/kpi/repository"
	leaddomain "fulqrun/backend/internal/lead/domain"
	leadrepo "fulqrun/backend/internal/lead/repository"
	membershipdomain "fulqrun/backend/internal/membership/domain"
	membershiprepo "fulqrun/backend/internal/membership/repository"
	oppdomain "fulqrun/backend/internal/opportunity/domain"
	opportunityrepo "fulqrun/backend/internal/opportunity/repository"
	orgdomain "fulqrun/backend/internal/organization/domain"
	organizationrepo "fulqrun/backend/internal/organization/repository"
	quotadomain "fulqrun/backend/internal/quota/domain"
	quotarepo "fulqrun/backend/internal/quota/repository"
	"fulqrun/backend/internal/security"
	userdomain "fulqrun/backend/internal/user/domain"
	userrepo "fulqrun/backend/internal/user/repository"
)

const (
	devAdminEmail = "dev@example.com"
	devRepEmail   = "rep@example.com"
	devPassword   = "password123"
	devAdminID    = "dev-user-001"
	devRepID      = "dev-user-002"
	devOrgID      = "dev-org-001"
	devContactID  = "dev-contact-001"
	devOppOpenID  = "dev-opp-001"
	devOppWonID   = "dev-opp-002"
	devQuotaID    = "dev-quota-001"
	devTerritory  = "northeast"
	devProduct    = "cardizol"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	users := userrepo.NewPostgresRepository(conn)
	existing, err := users.GetByEmail(ctx, devAdminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	for _, u := range []*userdomain.User{
		{ID: devAdminID, Email: devAdminEmail, Name: "Dev Admin", Status: userdomain.UserStatusActive, CreatedAt: now, UpdatedAt: now},
		{ID: devRepID, Email: devRepEmail, Name: "Dev Rep", Status: userdomain.UserStatusActive, CreatedAt: now, UpdatedAt: now},
	} {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", u.Email, err)
		}
	}

	identities := identityrepo.NewPostgresRepository(conn)
	for i, cred := range []struct{ userID, email string }{
		{devAdminID, devAdminEmail},
		{devRepID, devRepEmail},
	} {
		ident := &identitydomain.Identity{
			ID:           fmt.Sprintf("dev-identity-%03d", i+1),
			UserID:       cred.userID,
			Provider:     identitydomain.IdentityProviderLocal,
			ProviderID:   cred.email,
			PasswordHash: passwordHash,
			CreatedAt:    now,
		}
		if err := identities.Create(ctx, ident); err != nil {
			log.Fatalf("create identity %s: %v", cred.email, err)
		}
	}

	orgs := organizationrepo.NewPostgresRepository(conn)
	if err := orgs.Create(ctx, &orgdomain.Org{
		ID:        devOrgID,
		Name:      "Acme Pharma Dev",
		Status:    orgdomain.OrgStatusActive,
		Plan:      orgdomain.PlanGrowth,
		CreatedAt: now,
	}); err != nil {
		log.Fatalf("create org: %v", err)
	}

	members := membershiprepo.NewPostgresRepository(conn)
	for i, m := range []struct {
		userID string
		role   membershipdomain.Role
	}{
		{devAdminID, membershipdomain.RoleAdmin},
		{devRepID, membershipdomain.RoleRep},
	} {
		err := members.Create(ctx, &membershipdomain.Membership{
			ID:        fmt.Sprintf("dev-membership-%03d", i+1),
			UserID:    m.userID,
			OrgID:     devOrgID,
			Role:      m.role,
			CreatedAt: now,
		})
		if err != nil {
			log.Fatalf("create membership: %v", err)
		}
	}

	leads := leadrepo.NewPostgresRepository(conn)
	for i, l := range []*leaddomain.Lead{
		{Name: "Jordan Wells", Company: "Lakeside Clinic", Email: "jordan@lakeside.example", Source: "referral", Status: leaddomain.StatusNew},
		{Name: "Casey Tran", Company: "Summit Health", Email: "casey@summit.example", Source: "web", Status: leaddomain.StatusContacted},
		{Name: "Riley Okafor", Company: "Harbor Medical", Email: "riley@harbor.example", Source: "conference", Status: leaddomain.StatusQualified},
	} {
		l.ID = fmt.Sprintf("dev-lead-%03d", i+1)
		l.OrgID = devOrgID
		l.OwnerID = devRepID
		l.Score = l.ComputeScore()
		l.CreatedAt = now
		l.UpdatedAt = now
		if err := leads.Create(ctx, l); err != nil {
			log.Fatalf("create lead %s: %v", l.Name, err)
		}
	}

	contacts := contactrepo.NewPostgresRepository(conn)
	if err := contacts.Create(ctx, &contactdomain.Contact{
		ID:        devContactID,
		OrgID:     devOrgID,
		Name:      "Dr. Maya Ruiz",
		Email:     "maya@harbor.example",
		Title:     "Chief of Cardiology",
		Company:   "Harbor Medical",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create contact: %v", err)
	}

	opps := opportunityrepo.NewPostgresRepository(conn)
	closedAt := now.AddDate(0, 0, -14)
	openOpp := &oppdomain.Opportunity{
		ID:         devOppOpenID,
		OrgID:      devOrgID,
		OwnerID:    devRepID,
		ContactID:  devContactID,
		Name:       "Harbor Medical formulary deal",
		ValueCents: 4_500_000,
		Currency:   "USD",
		Stage:      oppdomain.StageEngaging,
		Status:     oppdomain.StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	wonOpp := &oppdomain.Opportunity{
		ID:         devOppWonID,
		OrgID:      devOrgID,
		OwnerID:    devRepID,
		Name:       "Summit Health pilot",
		ValueCents: 1_200_000,
		Currency:   "USD",
		Stage:      oppdomain.StageKeyDecision,
		Status:     oppdomain.StatusWon,
		ClosedAt:   &closedAt,
		CreatedAt:  now.AddDate(0, -2, 0),
		UpdatedAt:  closedAt,
	}
	for _, o := range []*oppdomain.Opportunity{openOpp, wonOpp} {
		if err := opps.Create(ctx, o); err != nil {
			log.Fatalf("create opportunity %s: %v", o.Name, err)
		}
	}

	kpis := kpirepo.NewPostgresRepository(conn)
	thisMonth := kpidomain.NormalizePeriod(now)
	for i, k := range []*kpidomain.PharmaKPI{
		{Period: thisMonth.AddDate(0, -1, 0), TRx: 410, NRx: 120, MarketShareBP: 1850, CallsMade: 96, SamplesDropped: 40},
		{Period: thisMonth, TRx: 460, NRx: 145, MarketShareBP: 1930, CallsMade: 104, SamplesDropped: 36},
	} {
		k.ID = fmt.Sprintf("dev-kpi-%03d", i+1)
		k.OrgID = devOrgID
		k.Territory = devTerritory
		k.Product = devProduct
		k.CreatedAt = now
		k.UpdatedAt = now
		if err := kpis.Upsert(ctx, k); err != nil {
			log.Fatalf("upsert kpi: %v", err)
		}
	}

	quotas := quotarepo.NewPostgresRepository(conn)
	quarterStart := time.Date(now.Year(), ((now.Month()-1)/3)*3+1, 1, 0, 0, 0, 0, time.UTC)
	if err := quotas.Create(ctx, &quotadomain.QuotaPlan{
		ID:          devQuotaID,
		OrgID:       devOrgID,
		UserID:      devRepID,
		PeriodStart: quarterStart,
		PeriodEnd:   quarterStart.AddDate(0, 3, 0),
		TargetCents: 5_000_000,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		log.Fatalf("create quota plan: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", devAdminEmail, devPassword)
	fmt.Printf("Rep login: %s / %s\n", devRepEmail, devPassword)
}
