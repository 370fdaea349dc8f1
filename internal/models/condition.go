package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConditionSubtype string

const (
	ConditionBelowTarget    ConditionSubtype = "below_target"
	ConditionPercentageDrop ConditionSubtype = "percentage_drop"
	ConditionBackInStock    ConditionSubtype = "back_in_stock"
	ConditionLowStock       ConditionSubtype = "low_stock"
)

// ConditionRule is the per-subtype rule variant of an AlertCondition.
// Price subtypes carry a price or percentage, stock subtypes a threshold;
// the variants make the fields mutually exclusive by construction.
type ConditionRule interface {
	isConditionRule()
}

type BelowTargetRule struct {
	TargetPrice float64 `json:"target_price" bson:"target_price"`
}

func (BelowTargetRule) isConditionRule() {}

type PercentageDropRule struct {
	Percentage float64 `json:"percentage" bson:"percentage"`
}

func (PercentageDropRule) isConditionRule() {}

type BackInStockRule struct{}

func (BackInStockRule) isConditionRule() {}

type LowStockRule struct {
	Threshold int `json:"threshold" bson:"threshold"`
}

func (LowStockRule) isConditionRule() {}

// AlertCondition is a persisted watch rule owned by a user. The external
// evaluation pipeline flips IsActive and the engine increments TotalTriggers
// when it fires.
type AlertCondition struct {
	ID            primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID        string             `json:"user_id" bson:"user_id"`
	ProductID     string             `json:"product_id" bson:"product_id"`
	Subtype       ConditionSubtype   `json:"subtype" bson:"subtype"`
	Rule          ConditionRule      `json:"rule" bson:"rule"`
	IsActive      bool               `json:"is_active" bson:"is_active"`
	TotalTriggers int                `json:"total_triggers" bson:"total_triggers"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

// Expired reports whether the condition's expiry has passed at the given time.
func (c *AlertCondition) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// NewPriceCondition builds a price watch rule (below_target or
// percentage_drop). The value is the target price or the drop percentage
// depending on the subtype.
func NewPriceCondition(userID, productID string, subtype ConditionSubtype, value float64, now time.Time, expiresAt *time.Time) (*AlertCondition, error) {
	var rule ConditionRule
	switch subtype {
	case ConditionBelowTarget:
		if value <= 0 {
			return nil, &ValidationError{Field: "target_price", Reason: "must be positive"}
		}
		rule = BelowTargetRule{TargetPrice: value}
	case ConditionPercentageDrop:
		if value <= 0 || value > 100 {
			return nil, &ValidationError{Field: "percentage", Reason: "must be in (0, 100]"}
		}
		rule = PercentageDropRule{Percentage: value}
	default:
		return nil, &ValidationError{Field: "subtype", Reason: "unknown price condition subtype " + string(subtype)}
	}

	return &AlertCondition{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		ProductID:     productID,
		Subtype:       subtype,
		Rule:          rule,
		IsActive:      true,
		TotalTriggers: 0,
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
	}, nil
}

// NewStockCondition builds a stock watch rule (back_in_stock or low_stock).
// The threshold only applies to low_stock.
func NewStockCondition(userID, productID string, subtype ConditionSubtype, threshold int, now time.Time, expiresAt *time.Time) (*AlertCondition, error) {
	var rule ConditionRule
	switch subtype {
	case ConditionBackInStock:
		rule = BackInStockRule{}
	case ConditionLowStock:
		if threshold <= 0 {
			return nil, &ValidationError{Field: "threshold", Reason: "must be positive"}
		}
		rule = LowStockRule{Threshold: threshold}
	default:
		return nil, &ValidationError{Field: "subtype", Reason: "unknown stock condition subtype " + string(subtype)}
	}

	return &AlertCondition{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		ProductID:     productID,
		Subtype:       subtype,
		Rule:          rule,
		IsActive:      true,
		TotalTriggers: 0,
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
	}, nil
}

// DecodeRuleBSON decodes a stored rule document into the variant matching
// the condition subtype.
func DecodeRuleBSON(subtype ConditionSubtype, raw bson.Raw) (ConditionRule, error) {
	switch subtype {
	case ConditionBelowTarget:
		var r BelowTargetRule
		if err := bson.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ConditionPercentageDrop:
		var r PercentageDropRule
		if err := bson.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	case ConditionBackInStock:
		return BackInStockRule{}, nil
	case ConditionLowStock:
		var r LowStockRule
		if err := bson.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, &ValidationError{Field: "subtype", Reason: "unknown condition subtype " + string(subtype)}
}

type conditionDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        string             `bson:"user_id"`
	ProductID     string             `bson:"product_id"`
	Subtype       ConditionSubtype   `bson:"subtype"`
	Rule          bson.Raw           `bson:"rule,omitempty"`
	IsActive      bool               `bson:"is_active"`
	TotalTriggers int                `bson:"total_triggers"`
	CreatedAt     time.Time          `bson:"created_at"`
	ExpiresAt     *time.Time         `bson:"expires_at,omitempty"`
}

func (c *AlertCondition) UnmarshalBSON(data []byte) error {
	var doc conditionDoc
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}

	c.ID = doc.ID
	c.UserID = doc.UserID
	c.ProductID = doc.ProductID
	c.Subtype = doc.Subtype
	c.IsActive = doc.IsActive
	c.TotalTriggers = doc.TotalTriggers
	c.CreatedAt = doc.CreatedAt
	c.ExpiresAt = doc.ExpiresAt
	c.Rule = nil

	if doc.Subtype == ConditionBackInStock || len(doc.Rule) > 0 {
		rule, err := DecodeRuleBSON(doc.Subtype, doc.Rule)
		if err != nil {
			return err
		}
		c.Rule = rule
	}
	return nil
}
