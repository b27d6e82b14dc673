package monitoring

import (
	"database/sql"
	"os"
	"path"
	"time"

	"github.com/avelar/taskboard-be/internal/storage"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// minAvatarAge keeps the sweep away from uploads that might still be mid
// profile update.
const minAvatarAge = 24 * time.Hour

// AvatarSweeper periodically deletes avatar files that no user row
// references anymore, e.g. after an avatar was replaced while the process
// was killed between the file write and the row update.
type AvatarSweeper struct {
	db    *sql.DB
	store *storage.AvatarStore
	cron  *cron.Cron
}

// NewAvatarSweeper creates a new AvatarSweeper.
func NewAvatarSweeper(db *sql.DB, store *storage.AvatarStore) *AvatarSweeper {
	return &AvatarSweeper{db: db, store: store, cron: cron.New()}
}

// Start schedules the nightly sweep.
func (s *AvatarSweeper) Start() error {
	if _, err := s.cron.AddFunc("0 3 * * *", s.Sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop cancels the schedule and waits for a running sweep to finish.
func (s *AvatarSweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep removes unreferenced avatar files older than minAvatarAge.
func (s *AvatarSweeper) Sweep() {
	referenced, err := s.referencedAvatars()
	if err != nil {
		log.Error().Err(err).Msg("Avatar sweep failed to list referenced avatars")
		return
	}

	entries, err := os.ReadDir(s.store.Dir())
	if err != nil {
		log.Error().Err(err).Msg("Avatar sweep failed to read avatar directory")
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < minAvatarAge {
			continue
		}
		if err := s.store.Remove(entry.Name()); err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Avatar sweep failed to remove file")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Avatar sweep removed orphaned files")
	}
}

// referencedAvatars returns the set of avatar file names some user points at.
func (s *AvatarSweeper) referencedAvatars() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT avatar_url FROM users WHERE avatar_url IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	referenced := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		// Stored as a public URL path; the file name is its last element.
		referenced[path.Base(url)] = true
	}
	return referenced, rows.Err()
}
