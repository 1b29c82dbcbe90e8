package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
	"churchadmin/internal/repository"
)

const backupVersion = "1.0"

// BackupData is the complete portable export of the database
type BackupData struct {
	Version              string                          `json:"version"`
	ExportedAt           time.Time                       `json:"exported_at"`
	Users                []UserBackup                    `json:"users"`
	Baptisms             []*models.Baptism               `json:"baptisms"`
	Burials              []*models.Burial                `json:"burials"`
	Marriages            []*models.Marriage              `json:"marriages"`
	ChoirMembers         []*models.ChoirMember           `json:"choir_members"`
	YouthMembers         []*models.YouthMember           `json:"youth_members"`
	ZonalLeaders         []*models.ZonalLeader           `json:"zonal_leaders"`
	UnitLeaders          []*models.UnitLeader            `json:"unit_leaders"`
	ParishCommittee      []*models.ParishCommitteeMember `json:"parish_committee"`
	SundaySchoolTeachers []*models.SundaySchoolTeacher   `json:"sunday_school_teachers"`
	MemberRegistrations  []*models.MemberRegistration    `json:"member_registrations"`
}

// UserBackup is a user account including its password hash
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// S3API is the part of the S3 client backups use
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client creates an S3 client from the default AWS credential chain
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// BackupService exports and restores every table as JSON
type BackupService struct {
	db                   *database.DB
	baptisms             *repository.RecordRepository[*models.Baptism]
	burials              *repository.RecordRepository[*models.Burial]
	marriages            *repository.RecordRepository[*models.Marriage]
	choirMembers         *repository.MembershipRepository[*models.ChoirMember]
	youthMembers         *repository.MembershipRepository[*models.YouthMember]
	zonalLeaders         *repository.ZonalLeaderRepository
	unitLeaders          *repository.UnitLeaderRepository
	parishCommittee      *repository.MembershipRepository[*models.ParishCommitteeMember]
	sundaySchoolTeachers *repository.MembershipRepository[*models.SundaySchoolTeacher]
	registrations        *repository.MemberRegistrationRepository
	logger               *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	return &BackupService{
		db:                   db,
		baptisms:             repository.NewBaptismRepository(db),
		burials:              repository.NewBurialRepository(db),
		marriages:            repository.NewMarriageRepository(db),
		choirMembers:         repository.NewChoirMemberRepository(db),
		youthMembers:         repository.NewYouthMemberRepository(db),
		zonalLeaders:         repository.NewZonalLeaderRepository(db),
		unitLeaders:          repository.NewUnitLeaderRepository(db),
		parishCommittee:      repository.NewParishCommitteeRepository(db),
		sundaySchoolTeachers: repository.NewSundaySchoolTeacherRepository(db),
		registrations:        repository.NewMemberRegistrationRepository(db),
		logger:               logger,
	}
}

// Export reads every table into a BackupData
func (s *BackupService) Export(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{Version: backupVersion, ExportedAt: time.Now().UTC()}

	var err error
	if backup.Users, err = s.exportUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	steps := []struct {
		name string
		run  func() error
	}{
		{"baptisms", func() (err error) { backup.Baptisms, err = s.baptisms.List(ctx); return }},
		{"burials", func() (err error) { backup.Burials, err = s.burials.List(ctx); return }},
		{"marriages", func() (err error) { backup.Marriages, err = s.marriages.List(ctx); return }},
		{"choir members", func() (err error) { backup.ChoirMembers, err = s.choirMembers.List(ctx); return }},
		{"youth members", func() (err error) { backup.YouthMembers, err = s.youthMembers.List(ctx); return }},
		{"zonal leaders", func() (err error) { backup.ZonalLeaders, err = s.zonalLeaders.List(ctx); return }},
		{"unit leaders", func() (err error) { backup.UnitLeaders, err = s.unitLeaders.List(ctx); return }},
		{"parish committee", func() (err error) { backup.ParishCommittee, err = s.parishCommittee.List(ctx); return }},
		{"sunday school teachers", func() (err error) { backup.SundaySchoolTeachers, err = s.sundaySchoolTeachers.List(ctx); return }},
		{"member registrations", func() (err error) { backup.MemberRegistrations, err = s.registrations.List(ctx); return }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	s.logger.Info("database exported",
		zap.Int("users", len(backup.Users)),
		zap.Int("baptisms", len(backup.Baptisms)),
		zap.Int("burials", len(backup.Burials)),
		zap.Int("marriages", len(backup.Marriages)),
		zap.Int("member_registrations", len(backup.MemberRegistrations)),
	)
	return backup, nil
}

// ExportToWriter writes the backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Export(ctx)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(backup)
}

// ImportFromReader restores a JSON backup. With clear set, existing rows are removed first.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader, clear bool) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	return s.Import(ctx, &backup, clear)
}

// Import restores a backup in one transaction, so a failed import leaves the
// existing data untouched. Zonal leaders are restored before the unit leaders that reference them.
func (s *BackupService) Import(ctx context.Context, backup *BackupData, clear bool) error {
	s.logger.Info("importing backup", zap.String("version", backup.Version), zap.Time("exported_at", backup.ExportedAt))

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clear {
			if err := clearTables(ctx, tx); err != nil {
				return err
			}
		}
		if err := s.importUsers(ctx, tx, backup.Users); err != nil {
			return fmt.Errorf("failed to import users: %w", err)
		}

		steps := []func() error{
			func() error { return restoreAll(ctx, tx, s.baptisms.Restore, backup.Baptisms) },
			func() error { return restoreAll(ctx, tx, s.burials.Restore, backup.Burials) },
			func() error { return restoreAll(ctx, tx, s.marriages.Restore, backup.Marriages) },
			func() error { return restoreAll(ctx, tx, s.choirMembers.Restore, backup.ChoirMembers) },
			func() error { return restoreAll(ctx, tx, s.youthMembers.Restore, backup.YouthMembers) },
			func() error { return restoreAll(ctx, tx, s.zonalLeaders.Restore, backup.ZonalLeaders) },
			func() error { return restoreAll(ctx, tx, s.unitLeaders.Restore, backup.UnitLeaders) },
			func() error { return restoreAll(ctx, tx, s.parishCommittee.Restore, backup.ParishCommittee) },
			func() error { return restoreAll(ctx, tx, s.sundaySchoolTeachers.Restore, backup.SundaySchoolTeachers) },
			func() error { return restoreAll(ctx, tx, s.registrations.Restore, backup.MemberRegistrations) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("backup import rolled back", zap.Error(err))
		return err
	}

	s.logger.Info("backup imported")
	return nil
}

func restoreAll[E models.Entity](ctx context.Context, q database.DBTX, restore func(context.Context, database.DBTX, E) error, records []E) error {
	for _, e := range records {
		if err := restore(ctx, q, e); err != nil {
			return fmt.Errorf("failed to import %s %s: %w", e.DisplayName(), e.Meta().ID, err)
		}
	}
	return nil
}

// clearOrder lists every table, children before parents
var clearOrder = []string{
	"member_children", "member_registrations", "unit_leaders", "zonal_leaders",
	"sunday_school_teachers", "parish_committee_members", "youth_members", "choir_members",
	"marriages", "burials", "baptisms", "password_reset_tokens", "sessions", "users",
}

// Clear deletes every row
func (s *BackupService) Clear(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		return clearTables(ctx, tx)
	})
}

func clearTables(ctx context.Context, q database.DBTX) error {
	for _, table := range clearOrder {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// UploadToS3 exports the database and stores it as an object in bucket
func (s *BackupService) UploadToS3(ctx context.Context, client S3API, bucket, key string) error {
	var buf bytes.Buffer
	if err := s.ExportToWriter(ctx, &buf); err != nil {
		return err
	}
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(buf.Len())),
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup to s3://%s/%s: %w", bucket, key, err)
	}
	s.logger.Info("backup uploaded", zap.String("bucket", bucket), zap.String("key", key), zap.Int("bytes", buf.Len()))
	return nil
}

// RestoreFromS3 downloads a backup object and imports it
func (s *BackupService) RestoreFromS3(ctx context.Context, client S3API, bucket, key string, clear bool) error {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to download backup s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return s.ImportFromReader(ctx, out.Body, clear)
}

func (s *BackupService) exportUsers(ctx context.Context) ([]UserBackup, error) {
	query := `SELECT id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), is_admin, created_at, updated_at FROM users ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []UserBackup{}
	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.OAuthProvider, &u.OAuthSubject, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *BackupService) importUsers(ctx context.Context, q database.DBTX, users []UserBackup) error {
	query := "INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, is_admin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	for _, u := range users {
		_, err := q.ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name,
			nullIfEmpty(u.OAuthProvider), nullIfEmpty(u.OAuthSubject), u.IsAdmin, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}

	// Explicit IDs leave the postgres sequence behind.
	if len(users) > 0 && q.GetDialect().DriverName() == "postgres" {
		if _, err := q.ExecContext(ctx, "SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT MAX(id) FROM users))"); err != nil {
			return fmt.Errorf("failed to reset user id sequence: %w", err)
		}
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
