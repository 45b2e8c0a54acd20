package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/supabase"
)

// Store is the wallet row lookup surface.
type Store interface {
	WalletByUser(ctx context.Context, userID string) (*supabase.Wallet, error)
}

// Service answers balance queries.
type Service struct {
	Wallets Store
}

// BalanceMessage returns the user-facing Turkish balance summary. A missing
// wallet row reads as zero balance rather than an error.
func (s *Service) BalanceMessage(ctx context.Context, userID string) (string, error) {
	w, err := s.Wallets.WalletByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if w == nil {
		return "💳 Henüz bir cüzdanınız yok. Bakiyeniz: 0 TL", nil
	}
	currency := strings.ToUpper(w.Currency)
	if currency == "" || currency == "TRY" {
		currency = "TL"
	}
	if w.Balance == float64(int64(w.Balance)) {
		return fmt.Sprintf("💳 Bakiyeniz: %d %s", int64(w.Balance), currency), nil
	}
	return fmt.Sprintf("💳 Bakiyeniz: %.2f %s", w.Balance, currency), nil
}
