package db

import (
	"time"

	"github.com/sepehrmoghiseh/musifyyy/bot"
)

// UserModel mirrors the users schema. The primary key is the Telegram user id.
type UserModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	Username  string
	FirstName string
	FirstSeen time.Time `gorm:"not null"`
	LastSeen  time.Time `gorm:"not null;index"`
}

func (UserModel) TableName() string {
	return "users"
}

func toInternal(model UserModel) *bot.UserRecord {
	return &bot.UserRecord{
		ID:        model.ID,
		Username:  model.Username,
		FirstName: model.FirstName,
		FirstSeen: model.FirstSeen,
		LastSeen:  model.LastSeen,
	}
}
