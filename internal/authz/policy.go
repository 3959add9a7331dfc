// Package authz centralises the allow/deny rules that the API applies to
// every operation. Handlers and services build an Actor from the
// authenticated user and ask Decide instead of re-deriving role checks at
// each call site.
package authz

import "strings"

// Action identifies an operation guarded by the policy.
type Action string

const (
	ActionSubmitHomework       Action = "homework.submit"
	ActionEditHomework         Action = "homework.edit"
	ActionViewHomework         Action = "homework.view"
	ActionCreateRating         Action = "rating.create"
	ActionViewSubmissionStats  Action = "lesson.stats"
	ActionAutoRateMissing      Action = "lesson.auto_rate"
	ActionCalculateLeaderboard Action = "leaderboard.calculate"
	ActionViewLeaderboard      Action = "leaderboard.view"
)

// Actor describes who is performing an action and the scope they act in.
type Actor struct {
	UserID    uint
	Role      string
	TeacherID uint  // non-zero for teacher accounts
	StudentID uint  // non-zero for student accounts
	GroupID   *uint // the student's group, when any
}

// Resource describes the target of an action. Fields that do not apply to a
// given action are left at their zero values.
type Resource struct {
	GroupID        *uint // group owning the resource
	GroupTeacherID *uint // teacher assigned to that group
	OwnerStudentID uint  // student owning a homework record
	Rated          bool  // homework already reached RATED
}

// Decision is the policy outcome. Reason is set only on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Decide evaluates whether the actor may perform the action on the resource.
func Decide(actor Actor, action Action, res Resource) Decision {
	role := strings.ToUpper(strings.TrimSpace(actor.Role))

	if role == "ADMIN" {
		return allow()
	}

	switch action {
	case ActionSubmitHomework:
		if role != "STUDENT" || actor.StudentID == 0 {
			return deny("only students can submit homework")
		}
		return studentInGroup(actor, res)

	case ActionEditHomework:
		if role != "STUDENT" || actor.StudentID == 0 {
			return deny("only students can edit their homework")
		}
		if res.OwnerStudentID != actor.StudentID {
			return deny("you can only edit your own homework")
		}
		if res.Rated {
			return deny("cannot edit homework that has already been rated")
		}
		return allow()

	case ActionViewHomework:
		if role == "STUDENT" && actor.StudentID == res.OwnerStudentID {
			return allow()
		}
		return teacherOwnsGroup(actor, role, res)

	case ActionCreateRating, ActionAutoRateMissing:
		return teacherOwnsGroup(actor, role, res)

	case ActionViewSubmissionStats:
		if role == "STUDENT" {
			return studentInGroup(actor, res)
		}
		return teacherOwnsGroup(actor, role, res)

	case ActionViewLeaderboard:
		// Teachers may ask for any scope; the read path intersects the
		// result with the groups they own. Students are pinned to their
		// own group.
		if role == "STUDENT" {
			return studentInGroup(actor, res)
		}
		if role == "TEACHER" && actor.TeacherID != 0 {
			return allow()
		}
		return deny("insufficient permissions")

	case ActionCalculateLeaderboard:
		return deny("only admins can trigger leaderboard calculation")
	}

	return deny("unknown action")
}

func studentInGroup(actor Actor, res Resource) Decision {
	if res.GroupID == nil {
		return allow()
	}
	if actor.GroupID == nil {
		return deny("you must be assigned to a group")
	}
	if *actor.GroupID != *res.GroupID {
		return deny("resource belongs to another group")
	}
	return allow()
}

func teacherOwnsGroup(actor Actor, role string, res Resource) Decision {
	if role != "TEACHER" || actor.TeacherID == 0 {
		return deny("insufficient permissions")
	}
	if res.GroupTeacherID == nil || *res.GroupTeacherID != actor.TeacherID {
		return deny("you are not assigned to this group")
	}
	return allow()
}
