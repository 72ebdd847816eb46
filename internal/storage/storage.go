package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/weekplan/internal/models"
)

// ErrNotFound is returned (wrapped) when a row does not exist or is not
// visible to the requesting owner.
var ErrNotFound = errors.New("not found")

// Provider is the backend contract. Every task, project and event call is
// scoped to an owner id.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	GetConfigPath() string
	// SchemaStatus reports the applied and newest available schema version.
	SchemaStatus() (current, latest int, err error)

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Users
	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	LinkIdentity(ctx context.Context, id models.Identity) error
	GetIdentity(ctx context.Context, provider, subject string) (models.Identity, error)

	// Tasks
	ListTasks(ctx context.Context, owner string) ([]models.Task, error)
	GetTask(ctx context.Context, owner, id string) (models.Task, error)
	InsertTask(ctx context.Context, t models.Task) error
	UpdateTask(ctx context.Context, owner, id string, patch models.TaskPatch) (models.Task, error)

	// Projects
	ListProjects(ctx context.Context, owner string) ([]models.Project, error)
	GetProject(ctx context.Context, owner, id string) (models.Project, error)
	InsertProject(ctx context.Context, p models.Project) error

	// Events
	ListEvents(ctx context.Context, owner string) ([]models.Event, error)
	InsertEvent(ctx context.Context, e models.Event) error
}
