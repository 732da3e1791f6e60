package migrations

import (
	"github.com/ersinak/upload-dispatcher/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrate creates the tables owned by this process. The videos table belongs
// to the calendar UI and is deliberately not touched here.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_video_uploads",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.VideoUploadModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_video_uploads_video ON video_uploads (video_id)`,
					`CREATE INDEX IF NOT EXISTS idx_video_uploads_status ON video_uploads (status)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.VideoUploadModel{})
			},
		},
	})

	return m.Migrate()
}
