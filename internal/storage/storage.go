package storage

import (
	"context"
	"fmt"
	"time"

	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ComplaintScope narrows complaint-level reads to what a viewer may see.
// An empty scope matches every complaint.
type ComplaintScope struct {
	OwnerID string // complaints filed by this customer
	AgentID string // complaints assigned to this agent
}

type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, cols map[string]interface{}) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	ListComplaints(ctx context.Context, scope ComplaintScope) ([]models.Complaint, error)
	UpdateComplaintDetails(ctx context.Context, id string, cols map[string]interface{}) (*models.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, id string, from, to models.ComplaintStatus) (*models.Complaint, error)
	DeleteComplaint(ctx context.Context, id string) error

	AssignAgent(ctx context.Context, a *models.Assignment, maxActive int) error
	GetAssignmentByComplaint(ctx context.Context, complaintID string) (*models.Assignment, error)
	ListAssignments(ctx context.Context, agentID string) ([]models.Assignment, error)
	CountActiveAssignments(ctx context.Context, agentID string) (int64, error)
	AgentLoads(ctx context.Context) ([]models.AgentLoad, error)

	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, complaintID string) ([]models.Message, error)
	MarkRead(ctx context.Context, complaintID, viewerID string) (int64, error)
	UnreadCounts(ctx context.Context, viewerID string, scope ComplaintScope) ([]models.UnreadCount, error)

	CreateFeedback(ctx context.Context, f *models.Feedback) error
	GetFeedbackByComplaint(ctx context.Context, complaintID string) (*models.Feedback, error)
	ListFeedback(ctx context.Context, agentID string) ([]models.Feedback, error)

	PublishEvent(ctx context.Context, channel string, ev models.Event) error
	SubscribeEvents(ctx context.Context, channel string) *redis.PubSub
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// OpenDB connects to the configured database.
func OpenDB(cfg config.DatabaseConfig, log gormlogger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   log,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite allows a single writer; serialize access through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.Assignment{},
		&models.Message{},
		&models.Feedback{},
	)
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
