package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/athome/driveops/internal/db"
)

// psql builds statements with postgres placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Runner executes a unit of work as the caller attached to the context.
// *db.PostgresDB satisfies it.
type Runner interface {
	WithIdentity(ctx context.Context, fn db.TransactionFn) error
}

// Repositories holds all the repository instances
type Repositories struct {
	MessageRepository      *MessageRepository
	ProfileRepository      *ProfileRepository
	ClockEventRepository   *ClockEventRepository
	LiveLocationRepository *LiveLocationRepository
	ScheduleRepository     *ScheduleRepository
	AssignmentRepository   *AssignmentRepository
	DrivingRouteRepository *DrivingRouteRepository
	MaterialRepository     *MaterialRepository
}

// NewRepositories initializes all repositories
func NewRepositories(runner Runner) *Repositories {
	return &Repositories{
		MessageRepository:      NewMessageRepository(runner),
		ProfileRepository:      NewProfileRepository(runner),
		ClockEventRepository:   NewClockEventRepository(runner),
		LiveLocationRepository: NewLiveLocationRepository(runner),
		ScheduleRepository:     NewScheduleRepository(runner),
		AssignmentRepository:   NewAssignmentRepository(runner),
		DrivingRouteRepository: NewDrivingRouteRepository(runner),
		MaterialRepository:     NewMaterialRepository(runner),
	}
}
