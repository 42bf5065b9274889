package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	CategoryGehalt       CategoryType = "GEHALT"
	CategoryKindergeld   CategoryType = "KINDERGELD"
	CategoryKredit       CategoryType = "KREDIT"
	CategoryVersicherung CategoryType = "VERSICHERUNG"
	CategoryTanken       CategoryType = "TANKEN"
	CategoryEinkauf      CategoryType = "EINKAUF"
	CategoryUnterhaltung CategoryType = "UNTERHALTUNG"
	CategoryCustom       CategoryType = "CUSTOM"
)

// DateLayout is the persisted and wire form of a calendar day.
const DateLayout = "2006-01-02"

// MaxTermMonths caps a credit term at 100 years.
const MaxTermMonths = 1200

const maxDescription = 200

type (
	TransactionType string
	CategoryType    string

	// Date is a calendar day anchored at UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
		CategoryID  string          `json:"categoryId"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
		Synced      bool            `json:"synced"`
	}

	// Credit is a fixed-rate installment loan. MonthlyRate is the derived
	// installment amount, not an interest rate.
	Credit struct {
		ID                    string          `json:"id"`
		Creditor              string          `json:"creditor"`
		Debtor                string          `json:"debtor"`
		TotalAmount           decimal.Decimal `json:"totalAmount"`
		TermMonths            int             `json:"termMonths"`
		MonthlyRate           decimal.Decimal `json:"monthlyRate"`
		EffectiveInterestRate decimal.Decimal `json:"effectiveInterestRate"`
		StartDate             Date            `json:"startDate"`
		Description           string          `json:"description,omitempty"`
		CreatedAt             time.Time       `json:"createdAt"`
		UpdatedAt             time.Time       `json:"updatedAt"`
		Synced                bool            `json:"synced"`
	}

	Category struct {
		ID              string          `json:"id"`
		Name            string          `json:"name"`
		Type            CategoryType    `json:"type"`
		TransactionType TransactionType `json:"transactionType"`
		Icon            string          `json:"icon"`
		Color           string          `json:"color"`
		IsCustom        bool            `json:"isCustom"`
		CreatedAt       time.Time       `json:"createdAt"`
	}
)

var (
	ErrInvalidDay          = fmt.Errorf("%w: invalid day", ErrValidation)
	ErrInvalidMonth        = fmt.Errorf("%w: invalid month", ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidType         = fmt.Errorf("%w: invalid transaction type", ErrValidation)
	ErrInvalidTerm         = fmt.Errorf("%w: term months must be between 1 and %d", ErrValidation, MaxTermMonths)
	ErrInvalidInterestRate = fmt.Errorf("%w: interest rate must be between 0 and 100", ErrValidation)
	ErrEmptyDescription    = fmt.Errorf("%w: empty description", ErrValidation)
	ErrDescriptionTooLong  = fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, maxDescription)
	ErrEmptyCategory       = fmt.Errorf("%w: empty category", ErrValidation)
	ErrEmptyName           = fmt.Errorf("%w: empty name", ErrValidation)
	ErrEmptyParty          = fmt.Errorf("%w: creditor and debtor are required", ErrValidation)
	ErrCategoryMismatch    = fmt.Errorf("%w: category does not match transaction type", ErrValidation)
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (c CategoryType) Valid() bool {
	switch c {
	case CategoryGehalt, CategoryKindergeld, CategoryKredit, CategoryVersicherung,
		CategoryTanken, CategoryEinkauf, CategoryUnterhaltung, CategoryCustom:
		return true
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket used by monthly aggregates.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// AddMonths keeps the day of month where possible and clamps to the last day otherwise.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func validateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	if !a.Equal(a.Round(2)) {
		return fmt.Errorf("%w: more than two decimal places", ErrInvalidAmount)
	}
	return nil
}

func validateDescription(s string, required bool) error {
	if required && strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	if len(s) > maxDescription {
		return ErrDescriptionTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if err := validateDescription(t.Description, true); err != nil {
		return err
	}
	return t.Date.Validate()
}

func (c Credit) Validate() error {
	if strings.TrimSpace(c.Creditor) == "" || strings.TrimSpace(c.Debtor) == "" {
		return ErrEmptyParty
	}
	if err := validateAmount(c.TotalAmount); err != nil {
		return err
	}
	if c.TermMonths < 1 || c.TermMonths > MaxTermMonths {
		return ErrInvalidTerm
	}
	if c.EffectiveInterestRate.IsNegative() || c.EffectiveInterestRate.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidInterestRate
	}
	if err := validateDescription(c.Description, false); err != nil {
		return err
	}
	if err := c.StartDate.Validate(); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: invalid category type %q", ErrValidation, c.Type)
	}
	if !c.TransactionType.Valid() {
		return ErrInvalidType
	}
	return nil
}

// CheckCategory reports whether cat may classify a transaction of type t.
func CheckCategory(t TransactionType, cat Category) error {
	if cat.TransactionType != t {
		return fmt.Errorf("%w: %s is a %s category", ErrCategoryMismatch, cat.Name, cat.TransactionType)
	}
	return nil
}

// IsValidation reports whether err is a record validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
