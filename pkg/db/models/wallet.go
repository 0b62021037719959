package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is the per-user escrow balance record. HeldPaise is the slice of
// BalancePaise currently reserved by open holds; the spendable amount is
// BalancePaise - HeldPaise. Version guards every mutation: writers update the
// row only when the version they read is still current.
type Wallet struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	BalancePaise int64     `gorm:"column:balance_paise;not null;default:0"`
	HeldPaise    int64     `gorm:"column:held_paise;not null;default:0"`
	Version      int64     `gorm:"column:version;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Available returns the spendable part of the balance.
func (w Wallet) Available() int64 {
	return w.BalancePaise - w.HeldPaise
}
