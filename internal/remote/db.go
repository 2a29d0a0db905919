package remote

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Connect opens the remote database. The chat tables are not migrated on
// purpose: their absence is a tolerated state (the syncer treats "table
// not found" as terminal non-retry). Only the profiles table, which the
// auth flow depends on, is ensured.
func Connect(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("remote db connect: %v", err)
	}
	if err := db.AutoMigrate(&Profile{}); err != nil {
		log.Fatalf("remote db migrate profiles: %v", err)
	}
	return db
}
