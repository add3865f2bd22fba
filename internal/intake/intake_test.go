package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/model"
	"github.com/stemsi/placement-client/internal/storage"
)

type fakeCreator struct {
	ids   *model.SessionIdentifiers
	err   error
	calls int
}

func (f *fakeCreator) CreateStudent(_ context.Context, _ model.StudentProfile) (*model.SessionIdentifiers, error) {
	f.calls++
	return f.ids, f.err
}

func validProfile() model.StudentProfile {
	return model.StudentProfile{
		Name:  "Ana Silva",
		Email: "ana@example.com",
		Phone: "555-0101",
		Age:   21,
	}
}

func TestSubmitRejectsIncompleteProfile(t *testing.T) {
	api := &fakeCreator{}
	kv := storage.NewMemory()
	in := New(api, kv, zerolog.Nop())

	_, err := in.Submit(context.Background(), model.StudentProfile{Name: "Ana Silva"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "phone")
	assert.Contains(t, ve.Fields, "age")
	assert.Zero(t, api.calls, "no network call on validation failure")

	_, ok, _ := kv.Get(context.Background(), config.StorageKey.StudentID)
	assert.False(t, ok, "no state mutation on validation failure")
}

func TestSubmitRejectsMalformedEmail(t *testing.T) {
	in := New(&fakeCreator{}, storage.NewMemory(), zerolog.Nop())

	profile := validProfile()
	profile.Email = "not-an-email"
	_, err := in.Submit(context.Background(), profile)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
}

func TestSubmitSeedsSessionIdentifiers(t *testing.T) {
	ctx := context.Background()
	api := &fakeCreator{ids: &model.SessionIdentifiers{
		StudentID:       "42",
		SetQuestion:     "3",
		StudentAnswerID: "7",
	}}
	kv := storage.NewMemory()
	in := New(api, kv, zerolog.Nop())

	ids, err := in.Submit(ctx, validProfile())
	require.NoError(t, err)
	assert.Equal(t, "42", ids.StudentID)

	for key, want := range map[string]string{
		config.StorageKey.StudentID:       "42",
		config.StorageKey.SetQuestion:     "3",
		config.StorageKey.StudentAnswerID: "7",
	} {
		v, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, "key %s should be seeded", key)
		assert.Equal(t, want, v)
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	api := &fakeCreator{err: errors.New("connection refused")}
	kv := storage.NewMemory()
	in := New(api, kv, zerolog.Nop())

	_, err := in.Submit(context.Background(), validProfile())
	require.Error(t, err)

	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))

	_, ok, _ := kv.Get(context.Background(), config.StorageKey.StudentID)
	assert.False(t, ok, "no identifiers seeded on failure")
}
