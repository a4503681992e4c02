package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfel-app/portfel/internal/services"
)

// Deps bundles everything the router needs.
type Deps struct {
	Auth         services.AuthService
	Wallets      services.WalletService
	Accounts     services.AccountService
	Transactions services.TransactionService
	Events       services.EventService
	Metals       services.MetalService
	RealEstates  services.RealEstateService
	Catalog      services.CatalogService
	Manager      services.WalletManagerService
	Snapshots    services.SnapshotService
	Quotes       services.QuoteSource
	Fx           services.FxSource
	Logger       *zap.Logger
	HealthCheck  func() error
}

// NewRouter builds the full HTTP surface. Everything under /api except
// /api/auth sits behind the session gate.
func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Auth, d.Logger)
	walletHandler := NewWalletHandler(d.Wallets, d.Logger)
	accountHandler := NewAccountHandler(d.Accounts, d.Wallets, d.Logger)
	txHandler := NewTransactionHandler(d.Transactions, d.Accounts, d.Wallets, d.Logger)
	eventHandler := NewEventHandler(d.Events, d.Logger)
	assetHandler := NewAssetHandler(d.Metals, d.RealEstates, d.Wallets, d.Logger)
	catalogHandler := NewCatalogHandler(d.Catalog, d.Quotes, d.Logger)
	treeHandler := NewTreeHandler(d.Manager, d.Snapshots, d.Fx, d.Logger)

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		status := map[string]string{"status": "healthy", "service": "portfel-wallet"}
		code := http.StatusOK
		if d.HealthCheck != nil {
			if err := d.HealthCheck(); err != nil {
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, status)
	}).Methods(http.MethodGet)

	// Public auth surface.
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/activate", authHandler.Activate).Methods(http.MethodGet)
	auth.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	auth.HandleFunc("/session", authHandler.Session).Methods(http.MethodGet)

	// Everything else requires a valid session plus stamp.
	api := r.PathPrefix("/api").Subrouter()
	api.Use(SessionMiddleware(d.Auth, d.Logger))

	api.HandleFunc("/wallets", walletHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/wallets", walletHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id}", walletHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}", walletHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/wallets/{id}", walletHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/wallets/{id}/dashboard", walletHandler.Dashboard).Methods(http.MethodGet)

	api.HandleFunc("/wallets/{id}/debts", walletHandler.ListDebts).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}/debts", walletHandler.CreateDebt).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id}/debts/{debtID}", walletHandler.UpdateDebt).Methods(http.MethodPut)
	api.HandleFunc("/wallets/{id}/debts/{debtID}", walletHandler.DeleteDebt).Methods(http.MethodDelete)

	api.HandleFunc("/wallets/{id}/recurring-expenses", walletHandler.ListRecurringExpenses).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}/recurring-expenses", walletHandler.CreateRecurringExpense).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id}/recurring-expenses/{expenseID}", walletHandler.UpdateRecurringExpense).Methods(http.MethodPut)
	api.HandleFunc("/wallets/{id}/recurring-expenses/{expenseID}", walletHandler.DeleteRecurringExpense).Methods(http.MethodDelete)

	api.HandleFunc("/wallets/{id}/year-goals", walletHandler.ListYearGoals).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}/year-goals", walletHandler.SetYearGoal).Methods(http.MethodPut)

	api.HandleFunc("/notes", walletHandler.ListNotes).Methods(http.MethodGet)
	api.HandleFunc("/notes", walletHandler.CreateNote).Methods(http.MethodPost)
	api.HandleFunc("/notes/{noteID}", walletHandler.UpdateNote).Methods(http.MethodPut)
	api.HandleFunc("/notes/{noteID}", walletHandler.DeleteNote).Methods(http.MethodDelete)

	api.HandleFunc("/wallets/{id}/accounts", accountHandler.ListDepositAccounts).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}/accounts", accountHandler.CreateDepositAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{accountID}", accountHandler.GetDepositAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{accountID}", accountHandler.UpdateDepositAccount).Methods(http.MethodPut)
	api.HandleFunc("/accounts/{accountID}", accountHandler.DeleteDepositAccount).Methods(http.MethodDelete)
	api.HandleFunc("/accounts/{accountID}/number", accountHandler.RevealAccountNumber).Methods(http.MethodGet)

	api.HandleFunc("/wallets/{id}/brokerage-accounts", accountHandler.ListBrokerageAccounts).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}/brokerage-accounts", accountHandler.CreateBrokerageAccount).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id}/brokerage-accounts/{accountID}", accountHandler.DeleteBrokerageAccount).Methods(http.MethodDelete)
	api.HandleFunc("/wallets/{id}/brokerage-accounts/{accountID}/links", accountHandler.LinkDepositAccount).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id}/brokerage-accounts/{accountID}/links/{linkID}", accountHandler.UnlinkDepositAccount).Methods(http.MethodDelete)

	api.HandleFunc("/accounts/{accountID}/transactions", txHandler.CreateBatch).Methods(http.MethodPost)
	api.HandleFunc("/transactions", txHandler.Page).Methods(http.MethodGet)
	api.HandleFunc("/transactions", txHandler.UpdateBatch).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{txID}", txHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{txID}", txHandler.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/brokerage-accounts/{accountID}/events", eventHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/brokerage-accounts/{accountID}/events", eventHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/brokerage-accounts/{accountID}/events/batch", eventHandler.CreateBatch).Methods(http.MethodPost)
	api.HandleFunc("/events", eventHandler.UpdateBatch).Methods(http.MethodPut)
	api.HandleFunc("/events/{eventID}", eventHandler.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/wallets/{id}/metals", assetHandler.ListMetals).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}/metals", assetHandler.BuyMetal).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id}/metals/{holdingID}", assetHandler.UpdateMetal).Methods(http.MethodPut)
	api.HandleFunc("/wallets/{id}/metals/{holdingID}", assetHandler.DeleteMetal).Methods(http.MethodDelete)
	api.HandleFunc("/wallets/{id}/metals/{holdingID}/sell", assetHandler.SellMetal).Methods(http.MethodPost)

	api.HandleFunc("/wallets/{id}/real-estates", assetHandler.ListRealEstates).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id}/real-estates", assetHandler.CreateRealEstate).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id}/real-estates/{estateID}", assetHandler.UpdateRealEstate).Methods(http.MethodPut)
	api.HandleFunc("/wallets/{id}/real-estates/{estateID}", assetHandler.DeleteRealEstate).Methods(http.MethodDelete)
	api.HandleFunc("/wallets/{id}/real-estates/{estateID}/sell", assetHandler.SellRealEstate).Methods(http.MethodPost)

	api.HandleFunc("/catalog/banks", catalogHandler.ListBanks).Methods(http.MethodGet)
	api.HandleFunc("/catalog/banks", catalogHandler.CreateBank).Methods(http.MethodPost)
	api.HandleFunc("/catalog/banks/{bankID}", catalogHandler.DeleteBank).Methods(http.MethodDelete)
	api.HandleFunc("/catalog/instruments", catalogHandler.ListInstruments).Methods(http.MethodGet)
	api.HandleFunc("/catalog/instruments/{symbol}/sync", catalogHandler.SyncCandles).Methods(http.MethodPost)
	api.HandleFunc("/catalog/real-estate-prices", catalogHandler.ListRealEstatePrices).Methods(http.MethodGet)
	api.HandleFunc("/catalog/real-estate-prices", catalogHandler.AddRealEstatePrice).Methods(http.MethodPost)
	api.HandleFunc("/catalog/real-estate-prices/{priceID}", catalogHandler.DeleteRealEstatePrice).Methods(http.MethodDelete)

	api.HandleFunc("/tree", treeHandler.Tree).Methods(http.MethodGet)
	api.HandleFunc("/snapshots", treeHandler.CreateSnapshot).Methods(http.MethodPost)
	api.HandleFunc("/fx/latest", treeHandler.FxLatest).Methods(http.MethodGet)

	return CORS(r)
}
