package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edutrack/edutrack-api/internal/authz"
)

// leaderboardScope narrows a leaderboard read to what the actor may see.
// Teachers are intersected with the groups they own at the query level,
// students default to their own group. An empty scope yields an empty
// response without touching storage.
type leaderboardScope struct {
	groupID   *uint
	teacherID *uint
	empty     bool
}

func resolveLeaderboardScope(actor authz.Actor, requested *uint) (leaderboardScope, error) {
	decision := authz.Decide(actor, authz.ActionViewLeaderboard, authz.Resource{GroupID: requested})
	if !decision.Allowed {
		return leaderboardScope{}, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	scope := leaderboardScope{groupID: requested}
	switch strings.ToUpper(strings.TrimSpace(actor.Role)) {
	case "TEACHER":
		teacherID := actor.TeacherID
		scope.teacherID = &teacherID
	case "STUDENT":
		if requested == nil {
			if actor.GroupID == nil {
				scope.empty = true
			} else {
				groupID := *actor.GroupID
				scope.groupID = &groupID
			}
		}
	}
	return scope, nil
}

func scopeToken(scope leaderboardScope) string {
	switch {
	case scope.groupID != nil && scope.teacherID != nil:
		return "g" + strconv.FormatUint(uint64(*scope.groupID), 10) + ":t" + strconv.FormatUint(uint64(*scope.teacherID), 10)
	case scope.teacherID != nil:
		return "teacher:" + strconv.FormatUint(uint64(*scope.teacherID), 10)
	case scope.groupID != nil:
		return strconv.FormatUint(uint64(*scope.groupID), 10)
	default:
		return "all"
	}
}
