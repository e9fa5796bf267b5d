package models

import "time"

// StateEntry is one value of the host key-value storage.
type StateEntry struct {
	Key       string `gorm:"column:state_key;primaryKey;size:120"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
