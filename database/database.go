package database

import (
	"gorm.io/gorm"

	"github.com/moodyshaheen/protfolio/models"
)

type Database struct {
	db          *gorm.DB
	projectRepo *ProjectRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:          db,
		projectRepo: NewProjectRepo(db),
	}
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

// Migrate brings the schema up to date for every managed model.
func (d Database) Migrate() error {
	return d.db.AutoMigrate(&models.Project{})
}
