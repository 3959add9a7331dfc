package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/authz"
	"github.com/edutrack/edutrack-api/internal/repository"
)

// ActorService turns an authenticated (user id, role) pair into a fully
// scoped authorization actor by resolving the matching profile record.
type ActorService interface {
	Resolve(ctx context.Context, userID uint, role string) (authz.Actor, error)
}

type actorService struct {
	students repository.StudentRepository
	teachers repository.TeacherRepository
}

// NewActorService constructs the actor resolver.
func NewActorService(students repository.StudentRepository, teachers repository.TeacherRepository) ActorService {
	return &actorService{students: students, teachers: teachers}
}

func (s *actorService) Resolve(ctx context.Context, userID uint, role string) (authz.Actor, error) {
	actor := authz.Actor{UserID: userID, Role: strings.ToUpper(strings.TrimSpace(role))}

	switch actor.Role {
	case "STUDENT":
		student, err := s.students.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return authz.Actor{}, ErrStudentProfileRequired
			}
			return authz.Actor{}, err
		}
		actor.StudentID = student.ID
		actor.GroupID = student.GroupID

	case "TEACHER":
		teacher, err := s.teachers.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return authz.Actor{}, ErrTeacherProfileRequired
			}
			return authz.Actor{}, err
		}
		actor.TeacherID = teacher.ID
	}

	return actor, nil
}
