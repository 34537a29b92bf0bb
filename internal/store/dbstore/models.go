package dbstore

import (
	"time"

	"github.com/clipvault/clipvault/internal/record"
)

// RecordModel is the persisted row for one clipboard history entry.
type RecordModel struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	ContentHash string  `gorm:"size:64;not null;index"` // SHA-256 dedup key
	Type        string  `gorm:"not null"`
	RawData     []byte  `gorm:"type:blob;not null"`
	PreviewData []byte  `gorm:"type:blob"`
	Timestamp   int64   `gorm:"not null;index"` // Unix seconds, bumped on re-paste
	AppPath     string  `gorm:"size:512"`
	AppName     string  `gorm:"size:256;index"`
	SearchText  string  `gorm:"type:text"`
	Length      int     `gorm:"not null;default:0"`
	GroupID     int64   `gorm:"column:group_id;not null;default:-1;index"`
	Tag         *string `gorm:"size:16;index"` // nullable, migrated in

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for RecordModel
func (RecordModel) TableName() string {
	return "records"
}

// ToRecord converts the GORM model to a record.Record
func (m *RecordModel) ToRecord() *record.Record {
	tag := ""
	if m.Tag != nil {
		tag = *m.Tag
	}
	return &record.Record{
		ID:          m.ID,
		ContentHash: m.ContentHash,
		Type:        record.ContentType(m.Type),
		RawData:     m.RawData,
		PreviewData: m.PreviewData,
		Timestamp:   m.Timestamp,
		AppPath:     m.AppPath,
		AppName:     m.AppName,
		SearchText:  m.SearchText,
		Length:      m.Length,
		Group:       m.GroupID,
		Tag:         tag,
	}
}

// fromRecord converts a record.Record to its GORM model
func fromRecord(rec *record.Record) *RecordModel {
	tag := rec.Tag
	return &RecordModel{
		ID:          rec.ID,
		ContentHash: rec.ContentHash,
		Type:        string(rec.Type),
		RawData:     rec.RawData,
		PreviewData: rec.PreviewData,
		Timestamp:   rec.Timestamp,
		AppPath:     rec.AppPath,
		AppName:     rec.AppName,
		SearchText:  rec.SearchText,
		Length:      rec.Length,
		GroupID:     rec.Group,
		Tag:         &tag,
	}
}

// MetaModel is a durable key-value pair used for the migration flag
// and the retention last-cleared date.
type MetaModel struct {
	Key       string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for MetaModel
func (MetaModel) TableName() string {
	return "meta"
}
