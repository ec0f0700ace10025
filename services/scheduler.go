// services/scheduler.go
package services

import (
	"log"
	"time"

	"tournament-registry-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartPublishScheduler publishes scheduled tournaments and completes
// finished ones on a one-minute tick.
func (s *TournamentService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()

			var due []models.Tournament
			err := s.DB.Where("status = ? AND publish_schedule <= ?", models.TournamentStatusDraft, now).
				Find(&due).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, t := range due {
				t.Status = models.TournamentStatusPublished
				t.PublishedAt = &now
				t.PublishSchedule = nil
				if err := s.DB.Save(&t).Error; err != nil {
					log.Printf("[Scheduler] Failed to publish tournament %s: %v", t.ID, err)
				} else {
					log.Printf("✅ Auto-published tournament: %s", t.Name)
				}
			}

			res := s.DB.Model(&models.Tournament{}).
				Where("status = ? AND end_time IS NOT NULL AND end_time < ?", models.TournamentStatusPublished, now).
				Update("status", models.TournamentStatusCompleted)
			if res.Error != nil {
				log.Printf("[Scheduler] Failed to complete finished tournaments: %v", res.Error)
			} else if res.RowsAffected > 0 {
				log.Printf("✅ Marked %d tournament(s) completed", res.RowsAffected)
			}
		}),
	)
}
