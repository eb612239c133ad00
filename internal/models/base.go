// Package models defines the data types used by themesd: GORM-backed
// accounts and the theme records read from the theme registry.
package models

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// BoolVal dereferences b. A nil pointer reads as true, matching the
// default:true column tag used for optional flags.
func BoolVal(b *bool) bool {
	return b == nil || *b
}

// ULID is the primary key type of every persisted model.
type ULID ulid.ULID

// NewULID generates a ULID for the current time.
func NewULID() ULID {
	return ULID(ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader))
}

// ParseULID parses the canonical 26 character form.
func ParseULID(s string) (ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ULID{}, fmt.Errorf("invalid ULID: %w", err)
	}
	return ULID(id), nil
}

// parseOptional treats the empty string as the zero ULID.
func parseOptional(s string) (ULID, error) {
	if s == "" {
		return ULID{}, nil
	}
	return ParseULID(s)
}

func (u ULID) String() string {
	return ulid.ULID(u).String()
}

// IsZero reports whether u is unset.
func (u ULID) IsZero() bool {
	return u == ULID{}
}

// Value stores unset ids as NULL.
func (u ULID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.String(), nil
}

// Scan accepts the textual forms drivers return for varchar columns.
func (u *ULID) Scan(value any) error {
	var text string
	switch v := value.(type) {
	case nil:
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("unsupported type for ULID: %T", value)
	}

	id, err := parseOptional(text)
	if err != nil {
		return fmt.Errorf("scanning ULID: %w", err)
	}
	*u = id
	return nil
}

func (u ULID) MarshalJSON() ([]byte, error) {
	if u.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(u.String())
}

func (u *ULID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*u = ULID{}
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("invalid ULID JSON: %s", data)
	}
	id, err := parseOptional(text)
	if err != nil {
		return fmt.Errorf("parsing ULID JSON: %w", err)
	}
	*u = id
	return nil
}

// GormDataType sizes the column for the canonical text form.
func (ULID) GormDataType() string {
	return "varchar(26)"
}

// BaseModel carries the key and timestamps shared by persisted models.
type BaseModel struct {
	ID        ULID           `gorm:"primarykey;type:varchar(26)" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// BeforeCreate assigns an id unless the caller chose one.
func (b *BaseModel) BeforeCreate(*gorm.DB) error {
	if b.ID.IsZero() {
		b.ID = NewULID()
	}
	return nil
}
