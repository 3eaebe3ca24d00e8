package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tutorhub/tutorhub-api/internal/apierr"
	"github.com/tutorhub/tutorhub-api/internal/config"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/logger"
	"github.com/tutorhub/tutorhub-api/internal/models"
)

const testSecret = "test-secret"

func newAuth(t *testing.T, store db.Store) *AuthService {
	t.Helper()
	admins := config.ParseAdmins("Boss@Example.com", "hunter2")
	return NewAuthService(store, admins, testSecret, time.Hour, logger.Nop())
}

func TestAdminLoginFromAllowlist(t *testing.T) {
	store := db.NewMemoryStore()
	auth := newAuth(t, store)
	ctx := context.Background()

	res, err := auth.AdminLogin(ctx, " BOSS@example.com ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, TokenEnv, res.Token)
	assert.Equal(t, "boss@example.com", res.User["email"])
	assert.Equal(t, models.RoleAdmin, res.User["role"])

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.AccessToken, claims, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims["role"])

	// Second login reuses the bootstrapped profile.
	_, err = auth.AdminLogin(ctx, "boss@example.com", "hunter2")
	require.NoError(t, err)
	n, err := store.Count(ctx, db.Profiles, bson.M{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAdminLoginFromCollection(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	_, err = store.Insert(ctx, db.AdminUsers, models.AdminUser{Email: "ops@example.com", PasswordHash: hash})
	require.NoError(t, err)

	auth := newAuth(t, store)
	res, err := auth.AdminLogin(ctx, "Ops@Example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, TokenDB, res.Token)
	assert.NotEmpty(t, res.AccessToken)

	_, err = auth.AdminLogin(ctx, "ops@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.AdminLogin(ctx, "nobody@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.AdminLogin(ctx, "boss@example.com", "not-the-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCollectionList(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()
	for i, title := range []string{"Cats", "Dogs", "Category theory", "cattle"} {
		_, err := store.Insert(ctx, "courses", bson.M{"title": title, "sortOrder": i, "tutorEmail": "t@x.com"})
		require.NoError(t, err)
	}
	svc := NewCollectionService(store)

	res, err := svc.List(ctx, ListSpec{Collection: "courses", DefaultLimit: 2, MaxLimit: 3}, ListParams{
		Q:    `{"title":"cat","tutor_email":"t@x.com"}`,
		Sort: `{"sort_order":-1}`,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	assert.EqualValues(t, 2, res.Limit)
	assert.Equal(t, "courses", res.Collection)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "cattle", res.Items[0]["title"])

	res, err = svc.List(ctx, ListSpec{Collection: "courses", MaxLimit: 200}, ListParams{Limit: "10000", Offset: "-5"})
	require.NoError(t, err)
	assert.EqualValues(t, 200, res.Limit)
	assert.EqualValues(t, 0, res.Offset)
	assert.Len(t, res.Items, 4)

	_, err = svc.List(ctx, ListSpec{Collection: "courses"}, ListParams{Q: "{not json"})
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
}

func TestCollectionListBaseFilter(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()
	_, _ = store.Insert(ctx, db.Subjects, bson.M{"name": "Math", "isActive": true})
	_, _ = store.Insert(ctx, db.Subjects, bson.M{"name": "Latin", "isActive": false})
	_, _ = store.Insert(ctx, db.Subjects, bson.M{"name": "Art"})

	res, err := NewCollectionService(store).List(ctx, ListSpec{
		Collection:  db.Subjects,
		BaseFilter:  ActiveFilter(),
		DefaultSort: bson.D{{Key: "name", Value: 1}},
	}, ListParams{})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Art", res.Items[0]["name"])
	assert.Equal(t, "Math", res.Items[1]["name"])
}

func TestSearchFilterEscapes(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()
	_, _ = store.Insert(ctx, db.StudyNotes, bson.M{"title": "C++ basics"})
	_, _ = store.Insert(ctx, db.StudyNotes, bson.M{"title": "Cells", "content": "mitosis in c++ style"})
	_, _ = store.Insert(ctx, db.StudyNotes, bson.M{"title": "Ccc"})

	res, err := NewCollectionService(store).List(ctx, ListSpec{
		Collection: db.StudyNotes,
		BaseFilter: SearchFilter("c++", StudyNoteSearchFields...),
	}, ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	assert.Nil(t, SearchFilter("  "))
}

func TestProfileUpsert(t *testing.T) {
	store := db.NewMemoryStore()
	svc := NewProfileService(store)
	ctx := context.Background()

	out, err := svc.Upsert(ctx, models.Profile{Email: "Ann@X.com", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", out["email"])
	assert.Equal(t, models.RoleStudent, out["role"])
	assert.Equal(t, true, out["isActive"])

	out, err = svc.Upsert(ctx, models.Profile{Email: "ann@x.com", Role: models.RoleTutor, Subjects: []string{"Math"}})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTutor, out["role"])
	assert.Equal(t, "Ann", out["name"])

	n, _ := store.Count(ctx, db.Profiles, bson.M{})
	assert.EqualValues(t, 1, n)

	_, err = svc.Upsert(ctx, models.Profile{Name: "nobody"})
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
}

func TestContentCounters(t *testing.T) {
	store := db.NewMemoryStore()
	svc := NewContentService(store, logger.Nop())
	ctx := context.Background()

	note, err := svc.CreateStudyNote(ctx, models.StudyNote{Title: "Fractions"})
	require.NoError(t, err)
	id := note["_id"].(primitive.ObjectID).Hex()

	for i := 0; i < 3; i++ {
		_, err = svc.Increment(ctx, db.StudyNotes, id, "views")
		require.NoError(t, err)
	}
	doc, err := svc.Increment(ctx, db.StudyNotes, id, "downloads")
	require.NoError(t, err)
	assert.EqualValues(t, 3, doc["views"])
	assert.EqualValues(t, 1, doc["downloads"])

	_, err = svc.Increment(ctx, db.StudyNotes, primitive.NewObjectID().Hex(), "views")
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestCreateFlashcardsUpdatesCardCount(t *testing.T) {
	store := db.NewMemoryStore()
	svc := NewContentService(store, logger.Nop())
	ctx := context.Background()

	set, err := svc.CreateFlashcardSet(ctx, models.FlashcardSet{Title: "Bio"})
	require.NoError(t, err)
	setID := set["_id"].(primitive.ObjectID).Hex()

	cards, err := svc.CreateFlashcards(ctx, []models.Flashcard{
		{SetID: setID, Front: "Cell", Back: "Unit of life"},
		{SetID: setID, Front: "Gene", Back: "Unit of heredity"},
	})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.EqualValues(t, 1, cards[1]["orderIndex"])

	var stored bson.M
	require.NoError(t, store.FindOne(ctx, db.FlashcardSets, db.IDFilter(setID), &stored))
	assert.EqualValues(t, 2, stored["cardCount"])

	_, err = svc.CreateFlashcards(ctx, nil)
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
}

func TestCreateFlashcardsKeepsExplicitOrder(t *testing.T) {
	svc := NewContentService(db.NewMemoryStore(), logger.Nop())
	zero, seven := 0, 7

	cards, err := svc.CreateFlashcards(context.Background(), []models.Flashcard{
		{SetID: "s1", Front: "A", Back: "a", OrderIndex: &seven},
		{SetID: "s1", Front: "B", Back: "b", OrderIndex: &zero},
		{SetID: "s1", Front: "C", Back: "c"},
	})
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.EqualValues(t, 7, cards[0]["orderIndex"])
	assert.EqualValues(t, 0, cards[1]["orderIndex"])
	assert.EqualValues(t, 2, cards[2]["orderIndex"])
}

func TestInstantFlow(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()
	profiles := NewProfileService(store)
	inactive := false
	_, _ = profiles.Upsert(ctx, models.Profile{Email: "t1@x.com", Name: "B", Role: models.RoleTutor, Subjects: []string{"Math", "Physics"}})
	_, _ = profiles.Upsert(ctx, models.Profile{Email: "t2@x.com", Name: "A", Role: models.RoleTutor, Subjects: []string{"math"}})
	_, _ = profiles.Upsert(ctx, models.Profile{Email: "t3@x.com", Role: models.RoleTutor, Subjects: []string{"Math"}, IsActive: &inactive})
	_, _ = profiles.Upsert(ctx, models.Profile{Email: "s@x.com", Role: models.RoleStudent, Subjects: []string{"Math"}})

	svc := NewInstantService(store)
	tutors, err := svc.Tutors(ctx, "MATH")
	require.NoError(t, err)
	require.Len(t, tutors, 2)
	assert.Equal(t, "A", tutors[0]["name"])

	all, err := svc.Tutors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	req, err := svc.CreateRequest(ctx, models.InstantRequest{StudentEmail: "S@X.com", Subject: " Math ", Status: "closed"})
	require.NoError(t, err)
	assert.Equal(t, models.InstantStatusOpen, req["status"])
	assert.Equal(t, "s@x.com", req["studentEmail"])
	assert.Equal(t, "Math", req["subject"])
}

func TestDashboards(t *testing.T) {
	store := db.NewMemoryStore()
	ctx := context.Background()
	profiles := NewProfileService(store)
	_, _ = profiles.Upsert(ctx, models.Profile{Email: "t@x.com", Role: models.RoleTutor})
	_, _ = profiles.Upsert(ctx, models.Profile{Email: "s@x.com"})
	_, _ = store.Insert(ctx, "classes", bson.M{"tutorEmail": "t@x.com"})
	_, _ = store.Insert(ctx, "class_bookings", bson.M{"tutorEmail": "t@x.com", "studentEmail": "s@x.com"})

	svc := NewDashboardService(store, profiles)
	admin, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, admin.Counts["users"])
	assert.EqualValues(t, 1, admin.Counts["tutors"])
	assert.EqualValues(t, 1, admin.Counts["classes"])

	tutor, err := svc.Tutor(ctx, "T@x.com")
	require.NoError(t, err)
	assert.Equal(t, "t@x.com", tutor.Profile["email"])
	assert.EqualValues(t, 1, tutor.Counts["bookings"])

	student, err := svc.Student(ctx, "s@x.com")
	require.NoError(t, err)
	assert.EqualValues(t, 1, student.Counts["bookings"])
	assert.EqualValues(t, 0, student.Counts["quizAttempts"])

	_, err = svc.Student(ctx, "")
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
	failPut bool
}

func newFakeObjects() *fakeObjects { return &fakeObjects{objects: map[string][]byte{}} }

func (f *fakeObjects) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if f.failPut {
		return errors.New("bucket offline")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.objects[name] = b
	f.mu.Unlock()
	return nil
}

func (f *fakeObjects) PresignedURL(_ context.Context, name, _ string, _ time.Duration) (string, error) {
	return "https://objects.test/" + name + "?sig=1", nil
}

func (f *fakeObjects) Remove(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, name)
	f.removed = append(f.removed, name)
	return nil
}

func (f *fakeObjects) ObjectURL(name string) string { return "https://objects.test/" + name }

func TestMaterialUploadAndDownload(t *testing.T) {
	store := db.NewMemoryStore()
	objects := newFakeObjects()
	svc := NewFileService(store, objects, logger.Nop())
	ctx := context.Background()

	results, err := svc.UploadMaterials(ctx, []MaterialUpload{
		{Meta: models.TutorMaterial{Title: "Algebra", TutorEmail: "T@X.com"}, FileName: "algebra notes.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1")},
		{FileName: "geometry.pdf", Data: []byte("%PDF-2")},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "geometry", results[1].Material["title"])
	assert.Equal(t, "t@x.com", results[0].Material["tutorEmail"])
	assert.Len(t, objects.objects, 2)

	id := results[0].Material["_id"].(primitive.ObjectID).Hex()
	link, doc, err := svc.DownloadURL(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, link, "algebra_notes.pdf")
	assert.EqualValues(t, 1, doc["downloadCount"])

	_, _, err = svc.DownloadURL(ctx, primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestMaterialUploadFailures(t *testing.T) {
	ctx := context.Background()

	_, err := NewFileService(db.NewMemoryStore(), nil, logger.Nop()).UploadMaterials(ctx, []MaterialUpload{{FileName: "a.pdf"}})
	assert.Equal(t, http.StatusServiceUnavailable, apierr.StatusOf(err))

	objects := newFakeObjects()
	objects.failPut = true
	results, err := NewFileService(db.NewMemoryStore(), objects, logger.Nop()).UploadMaterials(ctx, []MaterialUpload{{FileName: "a.pdf"}})
	require.NoError(t, err)
	assert.Contains(t, results[0].Error, "bucket offline")
	assert.Nil(t, results[0].Material)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "notes_v2.pdf", safeName(`C:\docs\notes v2.pdf`))
	assert.Equal(t, "file", safeName(""))
	assert.Equal(t, "a.pdf", safeName("../../a.pdf"))
}
