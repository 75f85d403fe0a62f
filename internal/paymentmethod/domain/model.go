package domain

import "time"

const MaxCodeLength = 64

type PaymentMethod struct {
	ID            int64     `json:"id" gorm:"column:id;primaryKey"`
	Name          string    `json:"name" gorm:"column:name;type:text;not null"`
	Code          string    `json:"code" gorm:"column:code;type:varchar(64);not null;uniqueIndex"`
	Description   string    `json:"description" gorm:"column:description;type:text"`
	Instructions  string    `json:"instructions" gorm:"column:instructions;type:text"`
	RequiresProof bool      `json:"requires_proof" gorm:"column:requires_proof;not null;default:false"`
	Active        bool      `json:"active" gorm:"column:active;not null;default:true"`
	SortOrder     int       `json:"sort_order" gorm:"column:sort_order;not null;default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"column:updated_at;not null"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

// CheckUsable validates a method chosen at checkout. proofRef is the opaque
// reference to an uploaded payment proof, empty when none was provided.
func (m PaymentMethod) CheckUsable(proofRef string) error {
	if !m.Active {
		return ErrPaymentMethodInactive
	}
	if m.RequiresProof && proofRef == "" {
		return ErrPaymentProofRequired
	}
	return nil
}
