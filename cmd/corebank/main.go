// Command corebank is the single-process bootstrap: it wires each
// component's postgres/mongo/redis/rabbitmq adapters, mounts every HTTP
// surface on one fiber.App, and runs the saga recovery loop, AML sweep
// worker and outbox pumps alongside the server.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/meridianledger/corebank/internal/aml"
	amlhttp "github.com/meridianledger/corebank/internal/aml/http"
	amlmongo "github.com/meridianledger/corebank/internal/aml/mongo"
	amlpostgres "github.com/meridianledger/corebank/internal/aml/postgres"
	"github.com/meridianledger/corebank/internal/customer"
	customerhttp "github.com/meridianledger/corebank/internal/customer/http"
	customermongo "github.com/meridianledger/corebank/internal/customer/mongo"
	customerpostgres "github.com/meridianledger/corebank/internal/customer/postgres"
	"github.com/meridianledger/corebank/internal/identity"
	identityhttp "github.com/meridianledger/corebank/internal/identity/http"
	identitypostgres "github.com/meridianledger/corebank/internal/identity/postgres"
	"github.com/meridianledger/corebank/internal/ledger"
	ledgerhttp "github.com/meridianledger/corebank/internal/ledger/http"
	ledgerpostgres "github.com/meridianledger/corebank/internal/ledger/postgres"
	"github.com/meridianledger/corebank/internal/platform/app"
	"github.com/meridianledger/corebank/internal/platform/config"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/httpserver"
	"github.com/meridianledger/corebank/internal/platform/mlog"
	"github.com/meridianledger/corebank/internal/platform/mmongo"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/platform/mpostgres"
	"github.com/meridianledger/corebank/internal/platform/mrabbitmq"
	"github.com/meridianledger/corebank/internal/platform/mredis"
	"github.com/meridianledger/corebank/internal/saga"
	sagapostgres "github.com/meridianledger/corebank/internal/saga/postgres"
	"github.com/meridianledger/corebank/internal/sepa"
	sepahttp "github.com/meridianledger/corebank/internal/sepa/http"
	sepapostgres "github.com/meridianledger/corebank/internal/sepa/postgres"
	"github.com/meridianledger/corebank/internal/swift"
	swifthttp "github.com/meridianledger/corebank/internal/swift/http"
	swiftpostgres "github.com/meridianledger/corebank/internal/swift/postgres"
	"github.com/meridianledger/corebank/internal/transfer"
	transferhttp "github.com/meridianledger/corebank/internal/transfer/http"
	transferpostgres "github.com/meridianledger/corebank/internal/transfer/postgres"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.New()

	base, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("corebank: build logger: %v", err))
	}

	logger := mlog.NewZapLogger(base)
	ctx := context.Background()

	db := &mpostgres.Connection{
		ConnectionString: postgresDSN(cfg),
		DBName:           cfg.PrimaryDBName,
		MigrationsPath:   "migrations",
		Logger:           logger,
	}
	if err := db.Connect(ctx); err != nil {
		logger.Fatalf("corebank: connect postgres: %v", err)
	}

	redisConn := &mredis.Connection{ConnectionString: redisURL(cfg), Logger: logger}
	if err := redisConn.Connect(ctx); err != nil {
		logger.Fatalf("corebank: connect redis: %v", err)
	}

	redisClient, err := redisConn.GetClient(ctx)
	if err != nil {
		logger.Fatalf("corebank: redis client: %v", err)
	}

	rabbit := &mrabbitmq.Connection{ConnectionString: rabbitURL(cfg), Exchange: cfg.RabbitMQExchange, Logger: logger}
	if err := rabbit.Connect(ctx); err != nil {
		logger.Fatalf("corebank: connect rabbitmq: %v", err)
	}

	mongoConn := &mmongo.Connection{ConnectionString: mongoURL(cfg), Database: cfg.MongoName, Logger: logger}
	if err := mongoConn.Connect(ctx); err != nil {
		logger.Fatalf("corebank: connect mongo: %v", err)
	}

	publisher := eventbus.NewRabbitMQPublisher(rabbit)

	pool := db.Pool

	// transactor keeps every domain write and its staged outbox row in one
	// database transaction; each service receives it through its own
	// Transactor port.
	transactor := mpostgres.NewTransactor(pool)

	// --- Ledger ---
	ledgerRepo := ledgerpostgres.NewRepository(pool)
	ledgerOutbox := ledgerpostgres.NewOutboxRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo, ledgerOutbox)
	ledgerSvc.Tx = transactor

	// --- Saga (shared orchestrator, one per saga-producing component is
	// unnecessary since the Record carries its own SagaType) ---
	sagaRepo := sagapostgres.NewRepository(pool)
	orchestrator := saga.NewOrchestrator(sagaRepo)
	orchestrator.StepTimeout = cfg.SagaStepTimeout

	// --- Transfer ---
	transferRepo := transferpostgres.NewRepository(pool)
	transferSvc := transfer.NewService(transferRepo, ledgerSvc, orchestrator, transferRepo)
	transferSvc.Tx = transactor

	// --- SEPA ---
	sepaRepo := sepapostgres.NewTransferRepository(pool)
	sepaOutbox := sepapostgres.NewOutboxRepository(pool)
	sepaGateway := sepa.NewNetworkGateway("sepa-network", sepa.SimulatedAcknowledger{})
	sepaSvc := sepa.NewService(sepaRepo, ledgerSvc, orchestrator, sepaGateway, sepaOutbox)
	sepaSvc.Mandates = sepapostgres.NewMandateRepository(pool)
	sepaSvc.Batches = sepapostgres.NewBatchRepository(pool)
	sepaSvc.Returns = sepapostgres.NewReturnRepository(pool)
	sepaSvc.Tx = transactor

	// --- SWIFT ---
	swiftRepo := swiftpostgres.NewRepository(pool)
	swiftOutbox := swiftpostgres.NewOutboxRepository(pool)
	swiftGateway := swift.NewNetworkGateway("swift-network", swift.SimulatedSubmitter{})
	swiftFees := swift.FeeSchedule{FixedFee: mustAmount(cfg.SwiftFixedFee), PercentageFee: mustDecimal(cfg.SwiftPercentageFee)}
	swiftSvc := swift.NewService(swiftRepo, ledgerSvc, orchestrator, swift.AlwaysClearGate{}, swiftGateway, swiftFees, swiftOutbox)
	swiftSvc.Tx = transactor

	// --- AML ---
	amlRepo := amlpostgres.NewRepository(pool)
	caseNotes := amlmongo.NewCaseNoteStore(mongoConn)
	engine := aml.Engine{Rules: defaultAMLRules(), FlagThreshold: cfg.AMLFlagThreshold}
	amlSvc := aml.NewService(
		amlRepo,
		amlpostgres.CaseRepository{Repository: amlRepo},
		amlpostgres.ReportRepository{Repository: amlRepo},
		amlpostgres.RiskProfileRepository{Repository: amlRepo},
		amlpostgres.SanctionMatchRepository{Repository: amlRepo},
		engine, aml.Screener{FuzzyThreshold: 85}, amlRepo)
	amlSvc.Notes = caseNotes
	amlSvc.Tx = transactor

	// The SWIFT compliance gate screens against the AML sanctions list;
	// the AlwaysClearGate above is only a placeholder until amlSvc exists.
	swiftSvc.Gate = sanctionsGate{aml: amlSvc}

	// --- Customer ---
	customerRepo := customerpostgres.NewRepository(pool)
	documentRepo := customerpostgres.NewDocumentRepository(pool)
	historyRepo := customerpostgres.NewHistoryRepository(pool)
	scanStore := customermongo.NewScanStore(mongoConn)
	customerSvc := customer.NewService(customerRepo, documentRepo, historyRepo)
	customerSvc.Tx = transactor
	customerSvc.Scans = scanStore
	customerSvc.RiskTrigger = riskRecomputeAdapter{aml: amlSvc, customer: customerSvc, ledger: ledgerSvc}

	// --- Identity ---
	credentialRepo := identitypostgres.NewCredentialRepository(pool)
	loginGuard := identity.NewLoginGuard(identity.NewRedisLoginAttemptStore(redisClient), cfg.AuthFailedAttemptsLock)
	revocation := identity.NewRedisRevocationStore(redisClient)
	issuer := identity.NewTokenIssuer([]byte(cfg.JWTSecret), 30*time.Minute)
	identitySvc := identity.NewAuthService(credentialRepo, loginGuard, issuer, revocation)
	otpSvc := identity.NewOTPService(identity.NewRedisOTPStore(redisClient), cfg.OTPTTL)

	// --- HTTP surface ---
	fiberApp := fiber.New(fiber.Config{ErrorHandler: httpserver.WithError})

	jwtMiddleware := httpserver.NewJWTMiddleware([]byte(cfg.JWTSecret), revocation)
	rateLimiter := &httpserver.RateLimiter{Store: mredis.NewRateLimiter(redisClient), DefaultRPM: cfg.RateLimitDefaultRPM, AuthRPM: cfg.RateLimitAuthRPM}

	public := fiberApp.Group("/", rateLimiter.Limit(cfg.RateLimitAuthRPM, true))
	protected := fiberApp.Group("/", rateLimiter.Limit(cfg.RateLimitDefaultRPM, false), jwtMiddleware.Protect())

	(&identityhttp.Handler{Svc: identitySvc, OTP: otpSvc}).Register(public, protected)
	(&ledgerhttp.Handler{Svc: ledgerSvc}).Register(protected)
	(&transferhttp.Handler{Svc: transferSvc}).Register(protected)
	(&sepahttp.Handler{Svc: sepaSvc}).Register(protected)
	(&swifthttp.Handler{Svc: swiftSvc}).Register(protected)
	(&amlhttp.Handler{Svc: amlSvc}).Register(protected)
	(&customerhttp.Handler{Svc: customerSvc}).Register(protected)

	// --- Background components ---
	recovery := saga.NewRecoveryLoop(orchestrator, cfg.SagaRecoveryInterval, cfg.SagaStuckThreshold)
	recovery.RegisterResolver(transfer.SagaType, func(ctx context.Context, r *saga.Record) (saga.Definition, error) {
		return transferSvc.RecoveryResolver()(ctx, r)
	})
	recovery.RegisterResolver(sepa.SagaType, func(ctx context.Context, r *saga.Record) (saga.Definition, error) {
		return sepaSvc.RecoveryResolver()(ctx, r)
	})
	recovery.RegisterResolver(swift.SagaType, func(ctx context.Context, r *saga.Record) (saga.Definition, error) {
		return swiftSvc.RecoveryResolver()(ctx, r)
	})
	recovery.Logger = logger
	recovery.Locks = mredis.NewLockFactory(redisConn)

	sweep := aml.NewSweepWorker(amlSvc, accountLookupAdapter{ledger: ledgerSvc, customer: customerSvc}, 15*time.Minute)
	sweep.Logger = logger

	reconcile := app.RunFunc(func() {
		ticker := time.NewTicker(cfg.SagaRecoveryInterval)
		defer ticker.Stop()

		for range ticker.C {
			if err := transferSvc.ReconcileStuck(ctx, time.Now().UTC()); err != nil {
				logger.Errorf("transfer reconcile: %v", err)
			}
		}
	})

	ledgerPump := &eventbus.Pump{Store: ledgerOutbox, Publisher: publisher, Interval: 2 * time.Second, BatchSize: 50, Logger: logger}
	transferPump := &eventbus.Pump{Store: transferRepo, Publisher: publisher, Interval: 2 * time.Second, BatchSize: 50, Logger: logger}
	sepaPump := &eventbus.Pump{Store: sepaOutbox, Publisher: publisher, Interval: 2 * time.Second, BatchSize: 50, Logger: logger}
	swiftPump := &eventbus.Pump{Store: swiftOutbox, Publisher: publisher, Interval: 2 * time.Second, BatchSize: 50, Logger: logger}
	amlPump := &eventbus.Pump{Store: amlRepo, Publisher: publisher, Interval: 2 * time.Second, BatchSize: 50, Logger: logger}

	launcher := app.New(
		app.WithLogger(logger),
		app.Register("http", httpserver.NewServer(fiberApp, cfg.ServerAddress, logger)),
		app.Register("saga-recovery", recovery),
		app.Register("transfer-reconcile", reconcile),
		app.Register("aml-sweep", sweep),
		app.Register("ledger-outbox-pump", app.RunFunc(func() { ledgerPump.Run(ctx) })),
		app.Register("transfer-outbox-pump", app.RunFunc(func() { transferPump.Run(ctx) })),
		app.Register("sepa-outbox-pump", app.RunFunc(func() { sepaPump.Run(ctx) })),
		app.Register("swift-outbox-pump", app.RunFunc(func() { swiftPump.Run(ctx) })),
		app.Register("aml-outbox-pump", app.RunFunc(func() { amlPump.Run(ctx) })),
	)

	launcher.Run()
}

func postgresDSN(cfg *config.Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PrimaryDBUser, cfg.PrimaryDBPassword, cfg.PrimaryDBHost, cfg.PrimaryDBPort, cfg.PrimaryDBName)
}

func redisURL(cfg *config.Config) string {
	if cfg.RedisPassword == "" {
		return fmt.Sprintf("redis://%s:%s/0", cfg.RedisHost, cfg.RedisPort)
	}

	return fmt.Sprintf("redis://:%s@%s:%s/0", cfg.RedisPassword, cfg.RedisHost, cfg.RedisPort)
}

func rabbitURL(cfg *config.Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQUser, cfg.RabbitMQPass, cfg.RabbitMQHost, cfg.RabbitMQPort)
}

func mongoURL(cfg *config.Config) string {
	if cfg.MongoUser == "" {
		return fmt.Sprintf("mongodb://%s:%s", cfg.MongoHost, cfg.MongoPort)
	}

	return fmt.Sprintf("mongodb://%s:%s@%s:%s", cfg.MongoUser, cfg.MongoPassword, cfg.MongoHost, cfg.MongoPort)
}

func mustAmount(s string) money.Amount {
	a, err := money.New("EUR", s)
	if err != nil {
		panic(fmt.Sprintf("corebank: invalid configured amount %q: %v", s, err))
	}

	return a
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("corebank: invalid configured decimal %q: %v", s, err))
	}

	return d
}

// defaultAMLRules are the six built-in rule kinds with starter
// thresholds; operators override via AML rule configuration in a real
// deployment.
func defaultAMLRules() []aml.Rule {
	usd := func(s string) money.Amount { a, _ := money.New("USD", s); return a }

	return []aml.Rule{
		{Kind: aml.RuleVelocity, Enabled: true, RiskPoints: 25, WindowMinutes: 10, ThresholdCount: 5},
		{Kind: aml.RuleAmount, Enabled: true, RiskPoints: 40, ThresholdAmount: usd("15000.00")},
		{Kind: aml.RuleDailyLimit, Enabled: true, RiskPoints: 35, ThresholdAmount: usd("25000.00")},
		{Kind: aml.RuleTimeBased, Enabled: true, RiskPoints: 20, ThresholdAmount: usd("5000.00")},
		{Kind: aml.RuleStructuring, Enabled: true, RiskPoints: 30, ThresholdAmount: usd("10000.00")},
		{Kind: aml.RuleRoundAmount, Enabled: true, RiskPoints: 15},
	}
}

// riskRecomputeAdapter satisfies customer.RiskRecomputeTrigger over
// internal/aml, keeping the two packages decoupled. It refreshes the
// KYC-side terms of the risk formula (PEP, high-risk business,
// jurisdiction) from the customer record that triggered it, and keeps
// whatever alert/sanction/SAR-derived terms the sweep worker last
// computed rather than resetting them.
type riskRecomputeAdapter struct {
	aml      *aml.Service
	customer *customer.Service
	ledger   *ledger.Service
}

func (a riskRecomputeAdapter) TriggerRecompute(ctx context.Context, customerID string) error {
	existing, err := a.aml.RiskProfiles.FindByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}

	factors := aml.RiskFactors{}
	if existing != nil {
		factors = existing.RiskFactors
	}

	cust, err := a.customer.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	factors.PEP = cust.PEP
	factors.HighRiskBusiness = cust.HighRiskBusiness
	factors.HighRiskJurisdiction = customer.IsHighRiskJurisdiction(cust.CountryCode)

	_, err = a.aml.RecomputeRiskProfile(ctx, customerID, factors)

	return err
}

// accountLookupAdapter satisfies aml.AccountLookup over internal/ledger and
// internal/customer.
type accountLookupAdapter struct {
	ledger   *ledger.Service
	customer *customer.Service
}

func (a accountLookupAdapter) CustomerIDFor(ctx context.Context, accountNumber string) (string, error) {
	acct, err := a.ledger.GetAccount(ctx, accountNumber)
	if err != nil {
		return "", err
	}

	return acct.CustomerID.String(), nil
}

func (a accountLookupAdapter) RiskContextFor(ctx context.Context, accountNumber string) (aml.RiskContext, error) {
	acct, err := a.ledger.GetAccount(ctx, accountNumber)
	if err != nil {
		return aml.RiskContext{}, err
	}

	history, err := a.ledger.History(ctx, accountNumber, time.Time{}, time.Now())
	if err != nil {
		return aml.RiskContext{}, err
	}

	cust, err := a.customer.GetCustomer(ctx, acct.CustomerID.String())
	if err != nil {
		return aml.RiskContext{}, err
	}

	return aml.RiskContext{
		TotalTransactions:    len(history),
		PEP:                  cust.PEP,
		HighRiskJurisdiction: customer.IsHighRiskJurisdiction(cust.CountryCode),
		HighRiskBusiness:     cust.HighRiskBusiness,
	}, nil
}

// sanctionsGate satisfies swift.ComplianceGate over internal/aml's
// screening service.
type sanctionsGate struct {
	aml *aml.Service
}

func (g sanctionsGate) Screen(ctx context.Context, beneficiaryName, orderingCustomer string) (bool, string, error) {
	for _, name := range []string{beneficiaryName, orderingCustomer} {
		if name == "" {
			continue
		}

		matches, err := g.aml.ScreenSubject(ctx, name, "", "")
		if err != nil {
			return false, "", err
		}

		if len(matches) > 0 {
			return false, "sanctions match for " + name, nil
		}
	}

	return true, "", nil
}
