package service

import (
	"sort"

	"github.com/Ansh212/Onlineportal/internal/models"
)

// ComputeCenterStats tallies, per exam center, how many logs were submitted
// and how many of those candidates were flagged. Logs without a center
// reference contribute to no center at all.
func ComputeCenterStats(logs []models.ActivityLog, flaggedUsers map[string]struct{}) map[string]models.CenterStats {
	stats := make(map[string]models.CenterStats)

	for i := range logs {
		log := &logs[i]
		if log.CenterID == nil || *log.CenterID == "" {
			continue
		}

		s := stats[*log.CenterID]
		s.Submitted++
		if _, ok := flaggedUsers[log.UserID]; ok {
			s.Flagged++
		}
		stats[*log.CenterID] = s
	}

	return stats
}

// FlagCenters returns the ids of centers whose flagged ratio meets the
// threshold. The comparison is inclusive: exactly the threshold flags the
// center. Output is sorted so repeated runs produce identical results.
func FlagCenters(stats map[string]models.CenterStats, threshold float64) []string {
	flagged := make([]string, 0)

	for centerID, s := range stats {
		if s.Submitted == 0 {
			continue
		}
		if float64(s.Flagged)/float64(s.Submitted) >= threshold {
			flagged = append(flagged, centerID)
		}
	}

	sort.Strings(flagged)
	return flagged
}
