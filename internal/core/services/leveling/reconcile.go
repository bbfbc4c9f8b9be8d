package leveling

import (
	"sort"

	"guild-leveling-bot/internal/core/domain"
)

// RewardedRoles returns every role whose threshold the given level has
// passed, ordered by ascending threshold. Rewards stack: crossing level
// 10 with rewards at 5 and 10 entitles the user to both roles.
func RewardedRoles(level int, table domain.RewardTable) []string {
	thresholds := make([]int, 0, len(table))
	for threshold := range table {
		if threshold <= level {
			thresholds = append(thresholds, threshold)
		}
	}
	sort.Ints(thresholds)

	roles := make([]string, 0, len(thresholds))
	for _, threshold := range thresholds {
		roles = append(roles, table[threshold])
	}
	return roles
}

// RoleDiff is the minimal set of platform calls needed to bring a user's
// held reward roles in line with their entitlement.
type RoleDiff struct {
	ToGrant  []string
	ToRevoke []string
}

// Reconcile computes the diff between the roles a user currently holds
// and the roles their level entitles them to. Only roles belonging to
// the reward table are ever revoked; anything else the user holds is
// none of our business. Applying the diff and reconciling again yields
// an empty diff.
func Reconcile(currentRoles, rewardedRoles []string, tableRoles map[string]bool) RoleDiff {
	held := make(map[string]bool, len(currentRoles))
	for _, roleID := range currentRoles {
		held[roleID] = true
	}

	rewarded := make(map[string]bool, len(rewardedRoles))
	var diff RoleDiff
	for _, roleID := range rewardedRoles {
		if rewarded[roleID] {
			continue // same role on several thresholds
		}
		rewarded[roleID] = true
		if !held[roleID] {
			diff.ToGrant = append(diff.ToGrant, roleID)
		}
	}

	for _, roleID := range currentRoles {
		if tableRoles[roleID] && !rewarded[roleID] {
			diff.ToRevoke = append(diff.ToRevoke, roleID)
		}
	}
	sort.Strings(diff.ToRevoke)

	return diff
}
