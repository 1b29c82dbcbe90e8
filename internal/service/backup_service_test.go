package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"churchadmin/internal/models"
	"churchadmin/internal/repository"
)

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func seedParish(t *testing.T, ctx context.Context, records *Records) {
	t.Helper()
	require.NoError(t, records.ZonalLeaders.Create(ctx, zonalLeader("Peter", "1")))
	require.NoError(t, records.UnitLeaders.Create(ctx, unitLeader("Grace", "1")))
	require.NoError(t, records.Baptisms.Create(ctx, &models.Baptism{
		FullName: "Ada", Gender: "female", BaptismDate: "2024-04-07", FatherName: "Obi", MotherName: "Ngozi", Minister: "Fr. Paul",
	}))
	require.NoError(t, records.MemberRegistrations.Create(ctx, &models.MemberRegistration{
		FamilyName: "Adeyemi", HeadOfFamily: "Tunde", MaritalStatus: "married",
		Children: []models.Child{{FullName: "Kunle", Gender: "male"}},
	}))
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	srcDB := setupTestDB(t)
	_, err := repository.NewUserRepository(srcDB).CreateUser(ctx, "admin@parish.org", "hash", "Admin")
	require.NoError(t, err)
	seedParish(t, ctx, NewRecords(srcDB, zap.NewNop()))

	var buf bytes.Buffer
	require.NoError(t, NewBackupService(srcDB, zap.NewNop()).ExportToWriter(ctx, &buf))

	dstDB := setupTestDB(t)
	require.NoError(t, NewBackupService(dstDB, zap.NewNop()).ImportFromReader(ctx, &buf, false))

	dst := NewRecords(dstDB, zap.NewNop())
	units, err := dst.UnitLeaders.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Peter", units[0].ZonalLeaderName)

	regs, err := dst.MemberRegistrations.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	require.Len(t, regs[0].Children, 1)
	assert.Equal(t, "Kunle", regs[0].Children[0].FullName)

	user, err := repository.NewUserRepository(dstDB).GetUserByEmail(ctx, "admin@parish.org")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestBackupImportClear(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	records := NewRecords(db, zap.NewNop())
	seedParish(t, ctx, records)
	backups := NewBackupService(db, zap.NewNop())

	data, err := backups.Export(ctx)
	require.NoError(t, err)

	assert.Error(t, backups.Import(ctx, data, false), "restoring over existing rows conflicts")
	require.NoError(t, backups.Import(ctx, data, true))

	n, err := records.Baptisms.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFailedImportKeepsExistingData(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	_, err := users.CreateUser(ctx, "admin@parish.org", "hash", "Admin")
	require.NoError(t, err)
	records := NewRecords(db, zap.NewNop())
	seedParish(t, ctx, records)

	broken := &BackupData{
		Version: backupVersion,
		Users:   []UserBackup{{ID: 7, Email: "other@parish.org", PasswordHash: "hash", Name: "Other"}},
		UnitLeaders: []*models.UnitLeader{{
			Record:        models.Record{ID: "unit-1"},
			FullName:      "Peter Eze",
			Gender:        "male",
			UnitName:      "St. Jude",
			ZoneNumber:    "9",
			ZonalLeaderID: "missing",
		}},
	}
	require.Error(t, NewBackupService(db, zap.NewNop()).Import(ctx, broken, true))

	for name, count := range map[string]func(context.Context) (int, error){
		"baptisms":      records.Baptisms.Count,
		"zonal leaders": records.ZonalLeaders.Count,
		"unit leaders":  records.UnitLeaders.Count,
	} {
		n, err := count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n, name)
	}

	admin, err := users.GetUserByEmail(ctx, "admin@parish.org")
	require.NoError(t, err)
	require.NotNil(t, admin, "accounts survive a failed import")
	assert.True(t, admin.IsAdmin)

	other, err := users.GetUserByEmail(ctx, "other@parish.org")
	require.NoError(t, err)
	assert.Nil(t, other, "partially imported rows are rolled back")
}

func TestBackupS3(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedParish(t, ctx, NewRecords(db, zap.NewNop()))
	client := &fakeS3{objects: map[string][]byte{}}

	require.NoError(t, NewBackupService(db, zap.NewNop()).UploadToS3(ctx, client, "parish-backups", "backups/latest.json"))
	assert.Contains(t, client.objects, "parish-backups/backups/latest.json")

	restored := setupTestDB(t)
	require.NoError(t, NewBackupService(restored, zap.NewNop()).RestoreFromS3(ctx, client, "parish-backups", "backups/latest.json", false))
	n, err := NewRecords(restored, zap.NewNop()).ZonalLeaders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Error(t, NewBackupService(restored, zap.NewNop()).RestoreFromS3(ctx, client, "parish-backups", "missing.json", false))
}
