package store

import (
	"sort"

	"github.com/qs3c/fbsched_server/internal/model"
)

func sortBySlot(videos []model.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].ScheduledFor.Before(*videos[j].ScheduledFor)
	})
}
