package handlers

import (
	"net/http"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/services"
)

// authorizeWallet resolves the wallet and rejects access from another user.
// Every wallet-scoped handler goes through this before touching data.
func authorizeWallet(r *http.Request, wallets services.WalletService, walletID string) (*models.Wallet, error) {
	userID, err := requireUser(r.Context())
	if err != nil {
		return nil, err
	}
	wallet, err := wallets.Get(r.Context(), walletID)
	if err != nil {
		return nil, err
	}
	if wallet.UserID != userID {
		return nil, apperrors.Forbiddenf("wallets.authorize", "wallet belongs to another user")
	}
	return wallet, nil
}
