package migrations

import (
	"github.com/jmylchreest/themesd/internal/models"
	"gorm.io/gorm"
)

// AllMigrations returns every migration in version order.
//   - 001: users table
func AllMigrations() []Migration {
	return []Migration{
		migration001Users(),
	}
}

func migration001Users() Migration {
	return Migration{
		Version:     "001",
		Description: "Create users table",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.User{})
		},
		Down: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable("users")
		},
	}
}
